package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/ccsdb/internal/chem"
	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/logging"
	"github.com/KaramelBytes/ccsdb/internal/pathway"
	"github.com/KaramelBytes/ccsdb/internal/utils"
)

// Resources locates the dataset and its auxiliary files. Relative paths are
// resolved against DataDir, which may be a directory or an http(s) base.
type Resources struct {
	DataDir       string
	CompoundList  string
	PathwayList   string
	PeriodicTable string
	MassTolerance float64
}

// Dataset is the immutable result of loading one variant. It is safe to share
// between sessions.
type Dataset struct {
	Variant *dataset.Variant
	Source  string
	Rows    []dataset.Row
	Dropped int
	Review  []dataset.MassReview

	// Catalog is nil when the pathway resources could not be loaded.
	Catalog *pathway.Catalog
}

// PathwayEnabled reports whether the pathway facet is usable.
func (d *Dataset) PathwayEnabled() bool { return d.Catalog != nil }

// Load reads the periodic table, then the dataset and the auxiliary pathway
// resources concurrently. A dataset failure is fatal. An auxiliary failure is
// logged and leaves the pathway facet disabled. The compound list is read
// before the pathway list.
func Load(ctx context.Context, g fetch.Getter, v *dataset.Variant, res Resources, log *logging.Logger) (*Dataset, error) {
	if log == nil {
		log = logging.Default
	}
	table := chem.DefaultPeriodicTable()
	if res.PeriodicTable != "" {
		b, err := g.Get(ctx, utils.ResolveLocation(res.DataDir, res.PeriodicTable))
		if err != nil {
			return nil, fmt.Errorf("load periodic table: %w", err)
		}
		if table, err = chem.ParsePeriodicTable(b); err != nil {
			return nil, err
		}
	}

	var (
		out      = &Dataset{Variant: v, Source: utils.ResolveLocation(res.DataDir, v.DataFile)}
		compound pathway.Map
		entries  []pathway.Entry
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		t, err := dataset.Load(ctx, g, out.Source, v.DelimiterRune())
		if err != nil {
			return err
		}
		n := dataset.NewNormalizer(v, chem.NewEstimator(table), res.MassTolerance, log)
		if err := n.CheckColumns(t); err != nil {
			return fmt.Errorf("load dataset %s: %w", v.ID, err)
		}
		r := n.NormalizeAll(t.Records)
		out.Rows, out.Dropped, out.Review = r.Rows, r.Dropped, r.Review
		return nil
	})
	eg.Go(func() error {
		m, list, err := loadPathways(ctx, g, res, log)
		if err != nil {
			log.Warn("pathway filter disabled: %v", err)
			return nil
		}
		compound, entries = m, list
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if compound != nil {
		observed := make(facet.Set)
		for i := range out.Rows {
			if out.Rows[i].HasCompoundID() {
				observed[out.Rows[i].CompoundID] = struct{}{}
			}
		}
		out.Catalog = pathway.NewCatalog(compound, entries, observed, v.MissingPathway)
	}
	log.Info("loaded %s: %d rows (%d without CCS dropped, %d flagged for review)",
		v.ID, len(out.Rows), out.Dropped, len(out.Review))
	return out, nil
}

func loadPathways(ctx context.Context, g fetch.Getter, res Resources, log *logging.Logger) (pathway.Map, []pathway.Entry, error) {
	if res.CompoundList == "" || res.PathwayList == "" {
		return nil, nil, fmt.Errorf("pathway resources not configured")
	}
	b, err := g.Get(ctx, utils.ResolveLocation(res.DataDir, res.CompoundList))
	if err != nil {
		return nil, nil, fmt.Errorf("compound list: %w", err)
	}
	m, err := pathway.ParseCompoundList(b)
	if err != nil {
		return nil, nil, err
	}
	b, err = g.Get(ctx, utils.ResolveLocation(res.DataDir, res.PathwayList))
	if err != nil {
		return nil, nil, fmt.Errorf("pathway list: %w", err)
	}
	return m, pathway.ParsePathwayList(b, log), nil
}
