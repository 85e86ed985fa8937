package chem

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

//go:embed periodic_table.json
var embeddedTable []byte

// Element is one entry of the periodic-table resource.
type Element struct {
	Number     int       `json:"number"`
	Name       string    `json:"name,omitempty"`
	Symbol     string    `json:"symbol"`
	AtomicMass massValue `json:"atomic_mass"`
}

// massValue accepts both numeric and string atomic masses; published tables
// use either form.
type massValue float64

func (m *massValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("atomic_mass %q: %w", s, err)
	}
	*m = massValue(f)
	return nil
}

// PeriodicTable maps element symbols to atomic masses.
type PeriodicTable struct {
	bySymbol map[string]float64
}

// ParsePeriodicTable decodes a `{"elements":[{symbol, atomic_mass}, ...]}` document.
func ParsePeriodicTable(b []byte) (*PeriodicTable, error) {
	var doc struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse periodic table: %w", err)
	}
	if len(doc.Elements) == 0 {
		return nil, fmt.Errorf("parse periodic table: no elements")
	}
	t := &PeriodicTable{bySymbol: make(map[string]float64, len(doc.Elements))}
	for _, e := range doc.Elements {
		sym := strings.TrimSpace(e.Symbol)
		if sym == "" {
			continue
		}
		// first entry wins, matching a linear lookup over the list
		if _, ok := t.bySymbol[sym]; !ok {
			t.bySymbol[sym] = float64(e.AtomicMass)
		}
	}
	return t, nil
}

var defaultTable = sync.OnceValues(func() (*PeriodicTable, error) {
	return ParsePeriodicTable(embeddedTable)
})

// DefaultPeriodicTable returns the table compiled into the binary.
func DefaultPeriodicTable() *PeriodicTable {
	t, err := defaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

// Mass returns the atomic mass for symbol.
func (t *PeriodicTable) Mass(symbol string) (float64, bool) {
	m, ok := t.bySymbol[symbol]
	return m, ok
}

// Len returns the number of known symbols.
func (t *PeriodicTable) Len() int { return len(t.bySymbol) }
