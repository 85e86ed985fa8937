package table

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
)

func row(class, sub, name string) dataset.Row {
	return dataset.Row{Class: class, Subclass: sub, Name: name, CCSAvailable: true,
		Adducts: []dataset.AdductValue{{Kind: dataset.Protonated, Label: "[M+H]+", CCS: 100}}}
}

func variant(t *testing.T, id string) *dataset.Variant {
	t.Helper()
	v, err := dataset.DefaultVariants().Lookup(id)
	require.NoError(t, err)
	return v
}

func names(rows []dataset.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestGroupBoundaries(t *testing.T) {
	view := []dataset.Row{row("A", "x", "1"), row("A", "x", "2"), row("A", "y", "3"), row("B", "x", "4")}
	got := slices.Collect(Boundaries(view, []string{dataset.ColClass, dataset.ColSubclass}))
	require.Len(t, got, 3)
	assert.Equal(t, Boundary{Row: 0, Headers: []GroupHeader{{"class", "A"}, {"subclass", "x"}}}, got[0])
	assert.Equal(t, Boundary{Row: 2, Headers: []GroupHeader{{"subclass", "y"}}}, got[1])
	assert.Equal(t, Boundary{Row: 3, Headers: []GroupHeader{{"class", "B"}, {"subclass", "x"}}}, got[2])
}

func TestBoundariesStopEarly(t *testing.T) {
	view := []dataset.Row{row("A", "x", "1"), row("B", "x", "2"), row("C", "x", "3")}
	n := 0
	for range Boundaries(view, []string{dataset.ColClass}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestBoundariesAreRelativeToPage(t *testing.T) {
	view := []dataset.Row{row("A", "x", "1"), row("A", "x", "2"), row("A", "x", "3")}
	p := Paginate(view, []string{dataset.ColClass, dataset.ColSubclass}, 2, 2)
	assert.Equal(t, 2, p.Count)
	require.Len(t, p.Rows, 1)
	require.Len(t, p.Boundaries, 1, "a page opens its groups again")
	assert.Equal(t, 0, p.Boundaries[0].Row)
}

func TestPaginateClamps(t *testing.T) {
	p := Paginate(nil, nil, 5, 10)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.Count)
	assert.Empty(t, p.Rows)

	view := []dataset.Row{row("A", "x", "1"), row("A", "x", "2"), row("A", "x", "3")}
	p = Paginate(view, nil, 0, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 10, p.Size)
	assert.Len(t, p.Rows, 3)
}

func TestPairedToggle(t *testing.T) {
	m, err := New(nil, variant(t, "metabolite"))
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{"class", Asc}, {"subclass", Asc}}, m.Order())

	require.NoError(t, m.ClickGroupHeader("class"))
	assert.Equal(t, []SortKey{{"class", Desc}, {"subclass", Asc}}, m.Order())
	require.NoError(t, m.ClickGroupHeader("class"))
	assert.Equal(t, []SortKey{{"class", Asc}, {"subclass", Asc}}, m.Order())

	require.NoError(t, m.ClickGroupHeader("class"))
	require.NoError(t, m.ClickGroupHeader("subclass"))
	assert.Equal(t, []SortKey{{"class", Desc}, {"subclass", Desc}}, m.Order(), "other key keeps its direction")

	require.NoError(t, m.Sort([]SortKey{{"name", Desc}}))
	require.NoError(t, m.ClickGroupHeader("subclass"))
	assert.Equal(t, []SortKey{{"class", Asc}, {"subclass", Asc}}, m.Order(), "fewer than two keys resets")

	assert.True(t, errors.Is(m.ClickGroupHeader("name"), ErrUnknownColumn))
}

func TestSingleToggle(t *testing.T) {
	m, err := New(nil, variant(t, "urine"))
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{"class", Asc}}, m.Order())

	require.NoError(t, m.ClickGroupHeader("class"))
	assert.Equal(t, []SortKey{{"class", Desc}}, m.Order())
	require.NoError(t, m.ClickGroupHeader("class"))
	assert.Equal(t, []SortKey{{"class", Asc}}, m.Order())
	require.NoError(t, m.ClickGroupHeader("subclass"))
	assert.Equal(t, []SortKey{{"subclass", Asc}}, m.Order())
}

func TestApplyIsStableMultiKey(t *testing.T) {
	rows := []dataset.Row{row("B", "x", "1"), row("A", "y", "2"), row("A", "x", "3"), row("A", "y", "4"), row("B", "x", "5")}
	m, err := New(rows, variant(t, "metabolite"))
	require.NoError(t, err)

	assert.Equal(t, []string{"3", "2", "4", "1", "5"}, names(m.Apply(rows)))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, names(m.Rows()), "model rows are not reordered")

	require.NoError(t, m.Sort([]SortKey{{"class", Desc}, {"subclass", Desc}}))
	assert.Equal(t, []string{"1", "5", "2", "4", "3"}, names(m.Apply(rows)))

	require.NoError(t, m.Sort(nil))
	assert.Equal(t, []SortKey{{"class", Asc}, {"subclass", Asc}}, m.Order())
}

func TestSortNumericColumns(t *testing.T) {
	a, b, c := row("A", "x", "a"), row("A", "x", "b"), row("A", "x", "c")
	a.Mass, b.Mass, c.Mass = "100.5", "9.1", "75"
	rows := []dataset.Row{a, b, c}
	SortRows(rows, []SortKey{{"mass", Asc}})
	assert.Equal(t, []string{"b", "c", "a"}, names(rows))
}

func TestParseOrder(t *testing.T) {
	keys, err := ParseOrder("class:desc, name")
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{"class", Desc}, {"name", Asc}}, keys)

	_, err = ParseOrder("structure:asc")
	assert.True(t, errors.Is(err, ErrUnknownColumn))
	_, err = ParseOrder("class:up")
	assert.Error(t, err)
}

func TestPageMarkdown(t *testing.T) {
	view := []dataset.Row{row("A", "x", "Glycine"), row("B", "y", "Glucose")}
	view[0].CCSDisplay = "[M+H]+: 112.35\n[M-H]-: 108.10\n"
	md := Paginate(view, []string{"class", "subclass"}, 1, 10).Markdown("Metabolites")
	assert.Contains(t, md, "# Metabolites")
	assert.Contains(t, md, "## A\n")
	assert.Contains(t, md, "### y\n")
	assert.Contains(t, md, "[M+H]+: 112.35<br>[M-H]-: 108.10 |")
}
