package dataset

import (
	"strconv"

	"github.com/KaramelBytes/ccsdb/internal/chem"
)

// AdductValue is one measured adduct of a row. Only adducts with a numeric
// CCS value are kept on a Row.
type AdductValue struct {
	Kind  AdductKind `json:"kind"`
	Label string     `json:"label"`
	CCS   float64    `json:"ccs"`
	RSD   *float64   `json:"rsd,omitempty"`
}

// Row is the canonical unit of display, filtering and export selection.
type Row struct {
	Class        string        `json:"class"`
	Subclass     string        `json:"subclass"`
	Name         string        `json:"name"`
	CAS          string        `json:"cas"`
	CompoundID   string        `json:"compoundId,omitempty"`
	Formula      string        `json:"formula"`
	Mass         string        `json:"mass"`
	StructureRef string        `json:"structureRef"`
	Adducts      []AdductValue `json:"adducts"`
	CCSDisplay   string        `json:"ccsDisplay"`
	CCSAvailable bool          `json:"ccsAvailable"`

	// Estimated formula weight; zero unless HasEstimate.
	EstimatedMass float64 `json:"estimatedMass,omitempty"`
	HasEstimate   bool    `json:"hasEstimate"`
}

// HasCompoundID reports whether the pathway cross-reference key is present.
func (r *Row) HasCompoundID() bool { return r.CompoundID != "" }

// Column returns the display value of a named column.
func (r *Row) Column(name string) (string, bool) {
	switch name {
	case ColClass:
		return r.Class, true
	case ColSubclass:
		return r.Subclass, true
	case ColCompoundID:
		return r.CompoundID, true
	case ColName:
		return r.Name, true
	case ColCAS:
		return r.CAS, true
	case ColFormula:
		return r.Formula, true
	case ColMass:
		return r.Mass, true
	case ColCCS:
		return r.CCSDisplay, true
	}
	return "", false
}

// Column names of the normalized model.
const (
	ColClass      = "class"
	ColSubclass   = "subclass"
	ColCompoundID = "compoundId"
	ColName       = "name"
	ColCAS        = "cas"
	ColFormula    = "formula"
	ColMass       = "mass"
	ColCCS        = "ccs"
)

// ColumnNames lists the normalized columns in display order.
var ColumnNames = []string{ColClass, ColSubclass, ColCompoundID, ColName, ColCAS, ColFormula, ColMass, ColCCS}

// ParseNumber reads the leading decimal number of s ("12.5 (n=3)" reads 12.5).
// ok is false unless the result is a finite number. Mass checks in chem use
// the same reader.
func ParseNumber(s string) (float64, bool) { return chem.ParseNumber(s) }

// FormatNumber renders s with two decimals, or "N/A" when it is not numeric.
func FormatNumber(s string) string {
	f, ok := ParseNumber(s)
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
