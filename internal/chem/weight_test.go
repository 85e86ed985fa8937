package chem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightWater(t *testing.T) {
	e := NewEstimator(nil)
	w, ok, err := e.Weight("H2O")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "18.02", fmt.Sprintf("%.2f", w))
}

func TestWeightNoResult(t *testing.T) {
	e := NewEstimator(nil)
	for _, f := range []string{"", "  ", "N/A"} {
		w, ok, err := e.Weight(f)
		assert.NoError(t, err, f)
		assert.False(t, ok, f)
		assert.Zero(t, w, f)
	}
}

func TestWeightMultiLetterAndCounts(t *testing.T) {
	e := NewEstimator(nil)
	// glucose C6H12O6 ~ 180.156
	w, ok, err := e.Weight("C6H12O6")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 180.156, w, 0.01)

	// NaCl ~ 58.44
	w, _, err = e.Weight("NaCl")
	require.NoError(t, err)
	assert.InDelta(t, 58.44, w, 0.01)
}

func TestWeightUnknownSymbolSurfaces(t *testing.T) {
	e := NewEstimator(nil)
	_, ok, err := e.Weight("C2Xx3")
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownElement))
	assert.Contains(t, err.Error(), "Xx")
}

func TestWeightNoTerms(t *testing.T) {
	e := NewEstimator(nil)
	_, _, err := e.Weight("123")
	assert.True(t, errors.Is(err, ErrNoElements))
}

func TestParseFormulaThreeDigitSubscript(t *testing.T) {
	// 1-2 digit counts only; the third digit is not part of any term
	terms := ParseFormula("C100H2")
	assert.Equal(t, []Term{{"C", 10}, {"H", 2}}, terms)
}

func TestParseFormulaSkipsCharges(t *testing.T) {
	terms := ParseFormula("[C2H3O2]-")
	assert.Equal(t, []Term{{"C", 2}, {"H", 3}, {"O", 2}}, terms)
}

func TestParsePeriodicTableStringMasses(t *testing.T) {
	tbl, err := ParsePeriodicTable([]byte(`{"elements":[{"symbol":"H","atomic_mass":"1.008"},{"symbol":"O","atomic_mass":15.999}]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	m, ok := tbl.Mass("H")
	require.True(t, ok)
	assert.InDelta(t, 1.008, m, 1e-9)

	_, err = ParsePeriodicTable([]byte(`{"elements":[]}`))
	assert.Error(t, err)
}

func TestParseNumberReadsLeadingValue(t *testing.T) {
	got, ok := ParseNumber(" 180.06 (mono)")
	assert.True(t, ok)
	assert.InDelta(t, 180.06, got, 1e-9)

	_, ok = ParseNumber("NaN")
	assert.False(t, ok)
}

func TestDefaultPeriodicTableComplete(t *testing.T) {
	assert.Equal(t, 118, DefaultPeriodicTable().Len())
}

func TestDiscrepant(t *testing.T) {
	cases := []struct {
		name     string
		est      float64
		declared string
		flagged  bool
	}{
		{"within", 18.015, "18.0106", false},
		{"outside", 180.16, "178.5", true},
		{"exactly-tolerance", 10, "8.5", false},
		{"unparseable", 10, "n/a", false},
		{"annotated-within", 180.16, "180.06 (mono)", false},
		{"annotated-outside", 180.16, "250 (avg)", true},
	}
	for _, c := range cases {
		_, got := Discrepant(c.est, c.declared, 1.5)
		assert.Equal(t, c.flagged, got, c.name)
	}
}
