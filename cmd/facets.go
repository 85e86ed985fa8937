package cmd

import (
	"fmt"

	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
)

var (
	fctFilters filterFlags
	fctJSON    bool
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "List the class, subclass and pathway options for a selection",
	Long: `List the facet options the table offers under the given selection. Each
option list ignores its own facet: the class list reflects the pathway
selection, the subclass list reflects the class and pathway selections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openSession(cmd.Context(), &fctFilters)
		if err != nil {
			return err
		}
		o := s.Options()
		if fctJSON {
			b, err := utils.PrettyJSON(o)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Printf("Classes (%d):\n", len(o.Classes))
		for _, c := range o.Classes {
			fmt.Printf("- %s\n", c)
		}
		if s.Dataset().Variant.SubclassFacet {
			fmt.Printf("Subclasses (%d):\n", len(o.Subclasses))
			for _, c := range o.Subclasses {
				fmt.Printf("- %s\n", c)
			}
		}
		if !s.Dataset().PathwayEnabled() {
			fmt.Println("Pathways: (unavailable)")
			return nil
		}
		fmt.Printf("Pathways (%d):\n", len(o.Pathways))
		for _, e := range o.Pathways {
			id := e.ID
			if id == "" {
				id = "(none)"
			}
			fmt.Printf("- %s: %s\n", id, e.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(facetsCmd)
	fctFilters.register(facetsCmd)
	facetsCmd.Flags().BoolVar(&fctJSON, "json", false, "print the option lists as JSON")
}
