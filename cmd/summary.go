package cmd

import (
	"github.com/KaramelBytes/ccsdb/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	sumFilters      filterFlags
	sumOutput       string
	sumOutlierThr   float64
	sumMinCorrPairs int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize CCS values of the selected rows per adduct and class",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openSession(cmd.Context(), &sumFilters)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		if sumMinCorrPairs > 0 {
			opt.MinCorrelationPairs = sumMinCorrPairs
		}
		d := s.Dataset()
		rep := analysis.Summarize(s.View(), d.Variant, d.Review, d.Dropped, opt)
		return writeOrPrint(sumOutput, []byte(rep.Markdown()), "summary")
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFilters.register(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "optional path to write the summary (Markdown)")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	summaryCmd.Flags().IntVar(&sumMinCorrPairs, "min-corr-pairs", 3, "minimum mass/CCS pairs for a correlation")
}
