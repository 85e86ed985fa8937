package cmd

import (
	"context"
	"fmt"
	"time"

	cfgpkg "github.com/KaramelBytes/ccsdb/internal/config"
	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/session"
	"github.com/KaramelBytes/ccsdb/internal/utils"
	"github.com/spf13/cobra"
)

// filterFlags are the table selection flags shared by the table commands.
type filterFlags struct {
	variant    string
	classes    []string
	subclasses []string
	pathway    string
	search     string
	order      string
	toggles    []string
	page       int
	pageSize   int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.variant, "variant", "", "dataset variant (default from config)")
	fl.StringArrayVar(&f.classes, "class", nil, "class to include (repeatable)")
	fl.StringArrayVar(&f.subclasses, "subclass", nil, "subclass to include (repeatable)")
	fl.StringVar(&f.pathway, "pathway", "", "pathway id, or 'missing' for rows without a KEGG id")
	fl.StringVar(&f.search, "search", "", "free-text search; every term must match")
	fl.StringVar(&f.order, "order", "", "sort keys, e.g. 'mass:desc,name:asc' (default from variant)")
	fl.StringArrayVar(&f.toggles, "toggle", nil, "click a group header level after sorting (repeatable)")
	fl.IntVar(&f.page, "page", 1, "1-based page number")
	fl.IntVar(&f.pageSize, "page-size", 0, "rows per page (default from config)")
}

func (f *filterFlags) query() session.Query {
	return session.Query{
		Classes:    f.classes,
		Subclasses: f.subclasses,
		Pathway:    f.pathway,
		Search:     f.search,
		Order:      f.order,
		Toggles:    f.toggles,
		Page:       f.page,
		Size:       f.pageSize,
	}
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func newFetchClient(c *cfgpkg.Global) *fetch.Client {
	return fetch.NewClient(time.Duration(c.HTTPTimeoutSec) * time.Second)
}

// loadDataset resolves the variant and loads its rows and pathway resources.
func loadDataset(ctx context.Context, variant string) (*session.Dataset, *fetch.Client, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	vs, err := dataset.LoadVariants(c.VariantsFile)
	if err != nil {
		return nil, nil, err
	}
	if variant == "" {
		variant = c.Variant
	}
	v, err := vs.Lookup(variant)
	if err != nil {
		return nil, nil, err
	}
	g := newFetchClient(c)
	d, err := session.Load(ctx, g, v, session.Resources{
		DataDir:       c.DataDir,
		CompoundList:  c.CompoundList,
		PathwayList:   c.PathwayList,
		PeriodicTable: c.PeriodicTable,
		MassTolerance: c.MassTolerance,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return d, g, nil
}

// openSession loads the dataset and replays the filter flags onto a session.
func openSession(ctx context.Context, f *filterFlags) (*session.TableSession, *fetch.Client, error) {
	d, g, err := loadDataset(ctx, f.variant)
	if err != nil {
		return nil, nil, err
	}
	s, err := session.New(d, cfg.PageSize)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ApplyQuery(f.query()); err != nil {
		return nil, nil, err
	}
	return s, g, nil
}

// writeOrPrint writes out to path, or prints it when path is empty.
func writeOrPrint(path string, out []byte, what string) error {
	if path == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := utils.SafeWriteFile(path, out); err != nil {
		return fmt.Errorf("write %s: %w", what, err)
	}
	fmt.Printf("✓ Wrote %s to %s\n", what, path)
	return nil
}
