package pathway

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/logging"
)

const compoundJSON = `{
  "map00010": ["C00031", "C00022"],
  "map00250": ["C00049", "C00037"],
  "map00900": [],
  "map00061": ["C00249"]
}`

const pathwayTXT = "path:map00250\tAlanine, aspartate and glutamate metabolism\n" +
	"path:map00010\tGlycolysis / Gluconeogenesis\r\n" +
	"\n" +
	"path:map00900\tTerpenoid backbone biosynthesis\n" +
	"broken line\n" +
	"path:map00061\tFatty acid biosynthesis\n" +
	"path:map00010\tGlycolysis duplicate\n"

func TestParsePathwayList(t *testing.T) {
	var logBuf bytes.Buffer
	entries := ParsePathwayList([]byte(pathwayTXT), logging.New(&logBuf, logging.LevelWarn))
	require.Len(t, entries, 5)
	assert.Equal(t, Entry{ID: "map00250", Name: "Alanine, aspartate and glutamate metabolism"}, entries[0])
	assert.Equal(t, "map00061", entries[1].ID)
	assert.Equal(t, "Glycolysis / Gluconeogenesis", entries[2].Name)
	assert.Contains(t, logBuf.String(), "line 5")
}

func TestCatalogFiltersAndPins(t *testing.T) {
	m, err := ParseCompoundList([]byte(compoundJSON))
	require.NoError(t, err)
	entries := ParsePathwayList([]byte(pathwayTXT), logging.Discard())
	observed := facet.NewSet("C00031", "C00037")

	c := NewCatalog(m, entries, observed, true)
	assert.Equal(t, []Entry{
		{ID: "", Name: NoFilterName},
		{ID: "missing", Name: MissingName},
		{ID: "map00250", Name: "Alanine, aspartate and glutamate metabolism"},
		{ID: "map00010", Name: "Glycolysis / Gluconeogenesis"},
	}, c.Options())

	_, ok := c.Compounds("map00061")
	assert.False(t, ok, "pathways without observed compounds do not resolve")
	cs, ok := c.Compounds("map00010")
	require.True(t, ok)
	assert.Equal(t, []string{"C00031", "C00022"}, cs)
	_, ok = c.Compounds(facet.PathwayMissing)
	assert.False(t, ok)

	urine := NewCatalog(m, entries, observed, false)
	assert.Equal(t, "map00250", urine.Options()[1].ID)
	name, ok := urine.Name("")
	assert.True(t, ok)
	assert.Equal(t, NoFilterName, name)
}

func TestParseCompoundListErrors(t *testing.T) {
	_, err := ParseCompoundList([]byte("[1,2]"))
	assert.Error(t, err)
	m, err := ParseCompoundList([]byte("null"))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestOverlay(t *testing.T) {
	rows := []dataset.Row{
		{Name: "Glucose", CAS: "50-99-7", CompoundID: "C00031", CCSDisplay: "[M+Na]+: 150.20\n"},
		{Name: "Glucose dup", CAS: "0", CompoundID: "C00031"},
		{Name: "No id", CAS: "1"},
	}
	ov, ok := BuildOverlay("map00010", "Glycolysis", "https://example.org/kgml/", rows, Style{})
	require.True(t, ok)
	assert.Equal(t, "https://example.org/kgml/hsa00010", ov.DiagramURL)
	require.Len(t, ov.Highlights, 1)
	h := ov.Highlights["C00031"]
	assert.Equal(t, "Glucose", h.Name)
	assert.Equal(t, "Glucose<br>[M+Na]+: 150.20\n", h.Tooltip)
	assert.Equal(t, "red", h.Color)

	_, ok = BuildOverlay(facet.PathwayMissing, "", "", rows, DefaultStyle())
	assert.False(t, ok)
	_, ok = BuildOverlay("", "", "", rows, DefaultStyle())
	assert.False(t, ok)
}
