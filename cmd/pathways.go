package cmd

import (
	"fmt"

	"github.com/KaramelBytes/ccsdb/internal/pathway"
	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
)

var pwFilters filterFlags

var pathwaysCmd = &cobra.Command{
	Use:   "pathways [id]",
	Short: "List pathways, or print the diagram overlay of one pathway",
	Long: `Without an argument, list the pathways that contain at least one compound of
the dataset. With a pathway id, print the overlay for its diagram: the diagram
URL and one highlight (tooltip and color) per compound of the filtered rows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			pwFilters.pathway = args[0]
		}
		s, _, err := openSession(cmd.Context(), &pwFilters)
		if err != nil {
			return err
		}
		if !s.Dataset().PathwayEnabled() {
			return fmt.Errorf("pathway resources are not available")
		}
		if len(args) == 0 {
			for _, e := range s.Dataset().Catalog.Options() {
				if e.ID == "" {
					continue
				}
				fmt.Printf("%s\t%s\n", e.ID, e.Name)
			}
			return nil
		}
		ov, ok := s.Overlay(cfg.DiagramServiceURL, pathway.DefaultStyle())
		if !ok {
			fmt.Println(pathway.NoSelectionText)
			return nil
		}
		b, err := utils.PrettyJSON(ov)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathwaysCmd)
	pwFilters.register(pathwaysCmd)
}
