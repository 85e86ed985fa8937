package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/render"
	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tblFilters filterFlags
	tblHTML    bool
	tblJSON    bool
	tblOutput  string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print one page of the grouped CCS table",
	Example: `  ccsdb table --class "Amino acids" --page 2
  ccsdb table --pathway map00250 --order mass:desc --json
  ccsdb table --search glucose --html -o glucose.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tblHTML && tblJSON {
			return fmt.Errorf("specify at most one of --html or --json")
		}
		s, _, err := openSession(cmd.Context(), &tblFilters)
		if err != nil {
			return err
		}
		p := s.Page()
		if tblJSON {
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			return writeOrPrint(tblOutput, append(b, '\n'), "table page")
		}

		var b strings.Builder
		title := s.Dataset().Variant.Title
		b.WriteString(p.Markdown(title))
		fmt.Fprintf(&b, "\nPathway: %s.", s.PathwayLabel())
		if q := s.State().Search; q != "" {
			fmt.Fprintf(&b, " Search: %q.", q)
		}
		b.WriteString("\n")
		if tblHTML {
			return writeOrPrint(tblOutput, render.Page(title, b.String()), "table page")
		}
		return writeOrPrint(tblOutput, []byte(b.String()), "table page")
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tblFilters.register(tableCmd)
	tableCmd.Flags().BoolVar(&tblHTML, "html", false, "render the page as a standalone HTML document")
	tableCmd.Flags().BoolVar(&tblJSON, "json", false, "print the page (rows, boundaries, paging) as JSON")
	tableCmd.Flags().StringVarP(&tblOutput, "output", "o", "", "write to a file instead of stdout")
}
