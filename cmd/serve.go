package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/ccsdb/internal/export"
	"github.com/KaramelBytes/ccsdb/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvVariant string
	srvAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the table over a read-only HTTP API",
	Long: `Load the dataset once and serve it over GET endpoints:

  /                              HTML page of the selection
  /api/table                     rows, group boundaries, paging and facet options
  /api/pathways                  pathway options
  /api/pathways/{id}/overlay     diagram overlay of one pathway
  /api/export                    export of the selection (scope, source, format)
  /api/review                    rows whose mass needs review
  /data/*                        files of a local data_dir

Selections are passed as query parameters: class and subclass (repeatable),
pathway, search, order, toggle (repeatable), page and size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, g, err := loadDataset(ctx, srvVariant)
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		srv := server.New(server.Config{
			Data:               d,
			Exporter:           export.NewExporter(g, cfg.DataDir),
			PageSize:           cfg.PageSize,
			DiagramServiceURL:  cfg.DiagramServiceURL,
			StructureImageBase: cfg.StructureImageBase,
			DataDir:            cfg.DataDir,
			Log:                logger,
		})
		fmt.Printf("✓ Serving %s (%d rows) on %s\n", d.Variant.ID, len(d.Rows), addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		fmt.Println("✓ Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvVariant, "variant", "", "dataset variant (default from config)")
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config listen_addr)")
}
