package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
)

// ErrUnknownColumn is returned for sort keys naming a non-sortable column.
var ErrUnknownColumn = errors.New("unknown or unsortable column")

var ErrUnknownDirection = errors.New("unknown sort direction")

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// SortKey is one (column, direction) pair of the active order.
type SortKey struct {
	Column string `json:"column"`
	Dir    Dir    `json:"dir"`
}

func (k SortKey) String() string { return k.Column + ":" + string(k.Dir) }

func checkKey(k SortKey) (SortKey, error) {
	if _, ok := (&dataset.Row{}).Column(k.Column); !ok {
		return k, fmt.Errorf("%w: %q", ErrUnknownColumn, k.Column)
	}
	switch Dir(strings.ToLower(string(k.Dir))) {
	case Asc, "":
		k.Dir = Asc
	case Desc:
		k.Dir = Desc
	default:
		return k, fmt.Errorf("sort %s: %w %q", k.Column, ErrUnknownDirection, k.Dir)
	}
	return k, nil
}

// ParseOrder reads "col:dir,col:dir". A missing direction means ascending.
func ParseOrder(s string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		col, dir, _ := strings.Cut(part, ":")
		k, err := checkKey(SortKey{Column: strings.TrimSpace(col), Dir: Dir(strings.TrimSpace(dir))})
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// FromSpecs converts configured order specs into sort keys.
func FromSpecs(specs []dataset.OrderSpec) ([]SortKey, error) {
	keys := make([]SortKey, 0, len(specs))
	for _, s := range specs {
		k, err := checkKey(SortKey{Column: s.Column, Dir: Dir(s.Dir)})
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Model holds the full CCS-available row set of one variant and the active
// sort order. The row set is never mutated after construction.
type Model struct {
	rows     []dataset.Row
	grouping []string
	toggle   string
	canon    []SortKey
	initial  []SortKey
	order    []SortKey
}

// New builds a model over rows with the variant's grouping, default order and
// header toggle mode.
func New(rows []dataset.Row, v *dataset.Variant) (*Model, error) {
	initial, err := FromSpecs(v.DefaultOrder)
	if err != nil {
		return nil, fmt.Errorf("variant %s default order: %w", v.ID, err)
	}
	m := &Model{rows: rows, grouping: append([]string(nil), v.Grouping...), toggle: v.Toggle}
	for _, g := range m.grouping {
		if _, err := checkKey(SortKey{Column: g}); err != nil {
			return nil, fmt.Errorf("variant %s grouping: %w", v.ID, err)
		}
		m.canon = append(m.canon, SortKey{Column: g, Dir: Asc})
	}
	if len(initial) == 0 {
		initial = m.canon
	}
	m.initial = initial
	m.order = append([]SortKey(nil), initial...)
	return m, nil
}

// Rows returns the full row set in load order.
func (m *Model) Rows() []dataset.Row { return m.rows }

// Grouping returns the active grouping levels, outermost first.
func (m *Model) Grouping() []string { return m.grouping }

// Order returns a copy of the active sort keys.
func (m *Model) Order() []SortKey { return append([]SortKey(nil), m.order...) }

// Sort replaces the active order. An empty key list restores the variant's
// default order.
func (m *Model) Sort(keys []SortKey) error {
	if len(keys) == 0 {
		m.order = append([]SortKey(nil), m.initial...)
		return nil
	}
	checked := make([]SortKey, len(keys))
	for i, k := range keys {
		c, err := checkKey(k)
		if err != nil {
			return err
		}
		checked[i] = c
	}
	m.order = checked
	return nil
}

// ClickGroupHeader applies a click on the header of a grouping level.
//
// Paired mode: with two or more active keys, the clicked level's key flips
// between asc and desc while the other key keeps its direction; with fewer
// keys the order resets to the canonical all-ascending grouping order.
// Single mode: the order becomes the clicked level alone, descending if it
// was the ascending first key, ascending otherwise.
func (m *Model) ClickGroupHeader(level string) error {
	idx := -1
	for i, g := range m.grouping {
		if g == level {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q is not a grouping level", ErrUnknownColumn, level)
	}
	if m.toggle == dataset.ToggleSingle {
		dir := Asc
		if len(m.order) > 0 && m.order[0] == (SortKey{Column: level, Dir: Asc}) {
			dir = Desc
		}
		m.order = []SortKey{{Column: level, Dir: dir}}
		return nil
	}
	if len(m.order) < 2 {
		m.order = append([]SortKey(nil), m.canon...)
		return nil
	}
	dir := Asc
	if m.order[idx] == (SortKey{Column: level, Dir: Asc}) {
		dir = Desc
	}
	m.order[idx] = SortKey{Column: level, Dir: dir}
	return nil
}

// Apply returns a sorted copy of rows under the active order. The sort is
// stable, so rows equal on every key keep their relative input order.
func (m *Model) Apply(rows []dataset.Row) []dataset.Row {
	out := append([]dataset.Row(nil), rows...)
	SortRows(out, m.order)
	return out
}

// SortRows stable-sorts rows in place by keys.
func SortRows(rows []dataset.Row, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compare(&rows[i], &rows[j], k.Column)
			if c == 0 {
				continue
			}
			if k.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b *dataset.Row, col string) int {
	switch col {
	case dataset.ColMass:
		if x, ok := dataset.ParseNumber(a.Mass); ok {
			if y, ok := dataset.ParseNumber(b.Mass); ok {
				return cmpFloat(x, y)
			}
		}
	case dataset.ColCCS:
		return cmpFloat(firstCCS(a), firstCCS(b))
	}
	x, _ := a.Column(col)
	y, _ := b.Column(col)
	return strings.Compare(x, y)
}

func firstCCS(r *dataset.Row) float64 {
	if len(r.Adducts) == 0 {
		return 0
	}
	return r.Adducts[0].CCS
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
