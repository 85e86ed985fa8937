package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/logging"
	"github.com/KaramelBytes/ccsdb/internal/pathway"
	"github.com/KaramelBytes/ccsdb/internal/table"
)

const dataTSV = "main_class\tsubclass\tNeutral Name\tcas\tformula\tmass\tkegg\tcid\tmPlusHCCS\tmPlusNaCCS\n" +
	"Sugars\tHexoses\tGlucose\t50-99-7\tC6H12O6\t180.16\tC00031\t5793\t\t150.2\n" +
	"Amino acids\tNeutral\tGlycine\t56-40-6\tC2H5NO2\t75.07\tC00037\t750\t112.3\t\n" +
	"Amino acids\tAcidic\tAspartate\t56-84-8\tC4H7NO4\t133.10\tC00049\t5960\t120.1\t\n" +
	"Sugars\t\tMystery sugar\t00-00-1\tC6H12O6\t250\t\t\t131.0\t\n" +
	"Lipids\tFatty acids\tPalmitate\t57-10-3\tC16H32O2\t256.42\tC00249\t985\t\t\n"

const compoundJSON = `{"map00010": ["C00031", "C00022"], "map00250": ["C00049", "C00037"], "map00061": ["C00249"]}`

const pathwayTXT = "path:map00250\tAlanine, aspartate and glutamate metabolism\n" +
	"path:map00010\tGlycolysis / Gluconeogenesis\n" +
	"path:map00061\tFatty acid biosynthesis\n"

func writeData(t *testing.T, withAux bool) string {
	t.Helper()
	dir := t.TempDir()
	must := func(rel, body string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	must("data/metabolitedata.tsv", dataTSV)
	if withAux {
		must("res/compoundList.json", compoundJSON)
		must("res/pathwayList.txt", pathwayTXT)
	}
	return dir
}

func resources(dir string) Resources {
	return Resources{DataDir: dir, CompoundList: "res/compoundList.json", PathwayList: "res/pathwayList.txt", MassTolerance: 1.5}
}

func metabolite(t *testing.T) *dataset.Variant {
	t.Helper()
	v, err := dataset.DefaultVariants().Lookup("metabolite")
	require.NoError(t, err)
	return v
}

func load(t *testing.T, withAux bool) *Dataset {
	t.Helper()
	dir := writeData(t, withAux)
	d, err := Load(context.Background(), fetch.NewClient(0), metabolite(t), resources(dir), logging.Discard())
	require.NoError(t, err)
	return d
}

func names(rows []dataset.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestLoadBuildsCatalog(t *testing.T) {
	d := load(t, true)
	assert.Len(t, d.Rows, 4)
	assert.Equal(t, 1, d.Dropped)
	require.Len(t, d.Review, 1)
	assert.Equal(t, "Mystery sugar", d.Review[0].Name)
	require.True(t, d.PathwayEnabled())

	ids := []string{}
	for _, e := range d.Catalog.Options() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"", "missing", "map00250", "map00010"}, ids, "palmitate has no CCS, so map00061 is not offered")
}

func TestAuxFailureIsSoft(t *testing.T) {
	var logBuf bytes.Buffer
	dir := writeData(t, false)
	d, err := Load(context.Background(), fetch.NewClient(0), metabolite(t), resources(dir), logging.New(&logBuf, logging.LevelWarn))
	require.NoError(t, err)
	assert.False(t, d.PathwayEnabled())
	assert.Contains(t, logBuf.String(), "pathway filter disabled")

	s, err := New(d, 10)
	require.NoError(t, err)
	assert.True(t, errors.Is(s.SetPathway("map00010"), facet.ErrFacetDisabled))
	assert.Len(t, s.View(), 4)
}

func TestDatasetFailureIsFatal(t *testing.T) {
	_, err := Load(context.Background(), fetch.NewClient(0), metabolite(t), resources(t.TempDir()), logging.Discard())
	var nf *fetch.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestSessionFlow(t *testing.T) {
	s, err := New(load(t, true), 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"Aspartate", "Glycine", "Glucose", "Mystery sugar"}, names(s.View()))
	p := s.Page()
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, []string{"Aspartate", "Glycine"}, names(p.Rows))

	require.NoError(t, s.ClickGroupHeader("class"))
	assert.Equal(t, []table.SortKey{{Column: "class", Dir: table.Desc}, {Column: "subclass", Dir: table.Asc}}, s.Order())
	assert.Equal(t, []string{"Glucose", "Mystery sugar", "Aspartate", "Glycine"}, names(s.View()))

	require.NoError(t, s.SetPathway("map00250"))
	assert.Equal(t, "Alanine, aspartate and glutamate metabolism", s.PathwayLabel())
	assert.Equal(t, []string{"Amino acids"}, s.Options().Classes)

	ov, ok := s.Overlay("https://kgml/", pathway.DefaultStyle())
	require.True(t, ok)
	assert.Equal(t, "https://kgml/hsa00250", ov.DiagramURL)
	assert.Len(t, ov.Highlights, 2)

	require.NoError(t, s.SetPathway(facet.PathwayMissing))
	assert.Equal(t, []string{"Mystery sugar"}, names(s.View()))
	_, ok = s.Overlay("https://kgml/", pathway.DefaultStyle())
	assert.False(t, ok)
}

func TestExportTarget(t *testing.T) {
	s, err := New(load(t, true), 2)
	require.NoError(t, err)
	es, ok := s.Dataset().Variant.Export("tsv")
	require.True(t, ok)

	s.SetPage(2)
	ids, name := s.ExportTarget(ScopePage, es)
	assert.Equal(t, []string{"50-99-7", "00-00-1"}, ids)
	assert.Equal(t, "page_2_of_2_metabolitedata.tsv", name)

	s.SetSearch("sugar")
	ids, name = s.ExportTarget(ScopeSearch, es)
	assert.Equal(t, []string{"50-99-7", "00-00-1"}, ids)
	assert.Equal(t, "No_Pathway_Filter_sugar_metabolitedata.tsv", name)
}

func TestParseScope(t *testing.T) {
	sc, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeSearch, sc)
	sc, err = ParseScope("PAGE")
	require.NoError(t, err)
	assert.Equal(t, ScopePage, sc)
	_, err = ParseScope("row")
	assert.Error(t, err)
}
