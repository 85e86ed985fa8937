package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/ccsdb/internal/export"
	"github.com/KaramelBytes/ccsdb/internal/session"
	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
)

var (
	expFilters filterFlags
	expScope   string
	expSource  string
	expFormat  string
	expOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the selected rows from an original data file",
	Long: `Export copies the header and the matching rows (by CAS number) of one of the
variant's original data files. --scope page exports the current page, --scope
search every row the filters and search select. The file name follows the
selection unless --out names a file.`,
	Example: `  ccsdb export --pathway map00010 --source agilent
  ccsdb export --scope page --page 3 --format xlsx --out exports/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := session.ParseScope(expScope)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(expFormat)
		if err != nil {
			return err
		}
		s, g, err := openSession(cmd.Context(), &expFilters)
		if err != nil {
			return err
		}
		es, ok := s.Dataset().Variant.Export(expSource)
		if !ok {
			return fmt.Errorf("unknown export source %q for variant %s", expSource, s.Dataset().Variant.ID)
		}
		ids, name := s.ExportTarget(scope, es)
		if len(ids) == 0 {
			fmt.Fprintln(os.Stderr, "⚠ Warning: the selection is empty; only the header is exported")
		}
		f, err := export.NewExporter(g, cfg.DataDir).Export(cmd.Context(), ids, es, format, name)
		if err != nil {
			return err
		}

		path := f.Name
		if expOut != "" {
			if st, err := os.Stat(expOut); err == nil && st.IsDir() {
				path = filepath.Join(expOut, f.Name)
			} else {
				path = expOut
			}
		}
		if err := utils.SafeWriteFile(path, f.Data); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("✓ Exported %d rows (%s) to %s\n", len(ids), es.Name, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	expFilters.register(exportCmd)
	exportCmd.Flags().StringVar(&expScope, "scope", "search", "rows to export: page | search")
	exportCmd.Flags().StringVar(&expSource, "source", "", "export source of the variant (default: first, e.g. tsv)")
	exportCmd.Flags().StringVar(&expFormat, "format", "text", "output format: text | xlsx")
	exportCmd.Flags().StringVar(&expOut, "out", "", "output file or existing directory (default: generated name in the working directory)")
}
