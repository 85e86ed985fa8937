package cmd

import (
	"fmt"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	valVariant string
	valStrict  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check declared masses against formula weights",
	Long: `Load the dataset and list the rows whose declared mass differs from the
weight computed from the formula by more than mass_tolerance, and the rows
whose formula could not be evaluated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, _, err := loadDataset(cmd.Context(), valVariant)
		if err != nil {
			return err
		}
		fmt.Printf("Variant %s: %d rows loaded, %d without CCS values dropped\n", d.Variant.ID, len(d.Rows), d.Dropped)
		if len(d.Review) == 0 {
			fmt.Println("✓ All formula weights agree with the declared masses")
			return nil
		}
		fmt.Printf("%d rows need review:\n", len(d.Review))
		for _, r := range d.Review {
			switch r.Reason {
			case dataset.ReasonMassDiscrepancy:
				fmt.Printf("- %s (%s): %s declared %s, estimated %.2f (Δ %+.2f)\n", r.Name, r.CAS, r.Formula, r.Mass, r.Estimate, r.Delta)
			default:
				fmt.Printf("- %s (%s): %s [%s] %s\n", r.Name, r.CAS, r.Formula, r.Reason, r.Detail)
			}
		}
		if valStrict {
			return fmt.Errorf("%d rows failed mass validation", len(d.Review))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&valVariant, "variant", "", "dataset variant (default from config)")
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "exit with an error when any row needs review")
}
