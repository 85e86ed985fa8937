package cmd

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/structure"
	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	imgFilters     filterFlags
	imgOutDir      string
	imgAll         bool
	imgConcurrency int
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Download structure images of the selected rows",
	Long: `Download the structure image of every row on the current page (or every
selected row with --all). A failed download is retried once after
image_retry_delay_ms; a second failure writes the placeholder image instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, g, err := openSession(cmd.Context(), &imgFilters)
		if err != nil {
			return err
		}
		rows := s.Page().Rows
		if imgAll {
			rows = s.View()
		}
		if len(rows) == 0 {
			fmt.Println("(no rows selected)")
			return nil
		}
		if err := utils.EnsureDir(imgOutDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		f := &structure.Fetcher{
			Getter:      g,
			Base:        cfg.StructureImageBase,
			Placeholder: utils.ResolveLocation(cfg.DataDir, cfg.StructurePlaceholder),
			Delay:       time.Duration(cfg.ImageRetryDelayMs) * time.Millisecond,
			Scheduler:   structure.TimerScheduler{},
			Log:         logger,
		}
		var fallbacks atomic.Int32
		eg, ctx := errgroup.WithContext(cmd.Context())
		if imgConcurrency > 0 {
			eg.SetLimit(imgConcurrency)
		}
		for i, row := range rows {
			eg.Go(func() error {
				res, err := f.Fetch(ctx, row.StructureRef)
				if err != nil {
					return err
				}
				ext := ".png"
				if res.Placeholder {
					fallbacks.Add(1)
					if e := filepath.Ext(res.Src); e != "" {
						ext = e
					}
					logger.Warn("structure image for %s unavailable; using placeholder", row.Name)
				}
				return utils.SafeWriteFile(filepath.Join(imgOutDir, imageFileName(i, row)+ext), res.Data)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d structure images to %s", len(rows), imgOutDir)
		if n := fallbacks.Load(); n > 0 {
			fmt.Printf(" (%d placeholders)", n)
		}
		fmt.Println()
		return nil
	},
}

func imageFileName(i int, row dataset.Row) string {
	id := row.CAS
	if id == "" {
		id = row.Name
	}
	id = strings.Trim(unsafeName.ReplaceAllString(id, "_"), "_")
	return fmt.Sprintf("%03d_%s", i+1, id)
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imgFilters.register(imagesCmd)
	imagesCmd.Flags().StringVarP(&imgOutDir, "out", "o", "structures", "output directory")
	imagesCmd.Flags().BoolVar(&imgAll, "all", false, "download every selected row, not just the current page")
	imagesCmd.Flags().IntVar(&imgConcurrency, "concurrency", 4, "parallel downloads")
}
