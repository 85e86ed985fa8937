package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/KaramelBytes/ccsdb/internal/chem"
	"github.com/KaramelBytes/ccsdb/internal/logging"
)

// ErrMissingColumn is returned when a dataset lacks a column the variant needs.
var ErrMissingColumn = errors.New("dataset is missing a required column")

// Review reasons.
const (
	ReasonMassDiscrepancy = "mass-discrepancy"
	ReasonUnknownElement  = "unknown-element"
	ReasonNoElements      = "no-elements"
)

// MassReview is a row flagged for manual review of its declared mass.
// Flagged rows stay in the table.
type MassReview struct {
	Name     string  `json:"name"`
	CAS      string  `json:"cas"`
	Formula  string  `json:"formula"`
	Mass     string  `json:"mass"`
	Estimate float64 `json:"estimate,omitempty"`
	Delta    float64 `json:"delta,omitempty"`
	Reason   string  `json:"reason"`
	Detail   string  `json:"detail,omitempty"`
}

// Result is the outcome of normalizing a whole table.
type Result struct {
	// Rows holds only CCS-available rows, in source order.
	Rows    []Row
	Dropped int
	Review  []MassReview
}

// Normalizer maps raw records of one variant into rows.
type Normalizer struct {
	variant   *Variant
	estimator *chem.Estimator
	tolerance float64
	log       *logging.Logger
}

// NewNormalizer builds a normalizer. A nil estimator uses the embedded
// periodic table; tolerance <= 0 defaults to 1.5.
func NewNormalizer(v *Variant, est *chem.Estimator, tolerance float64, log *logging.Logger) *Normalizer {
	if est == nil {
		est = chem.NewEstimator(nil)
	}
	if tolerance <= 0 {
		tolerance = 1.5
	}
	if log == nil {
		log = logging.Default
	}
	return &Normalizer{variant: v, estimator: est, tolerance: tolerance, log: log}
}

// CheckColumns verifies that the table header carries the variant's key
// columns and at least one adduct CCS column.
func (n *Normalizer) CheckColumns(t *Table) error {
	c := n.variant.Columns
	required := []struct {
		field string
		cands []string
	}{{"class", c.Class}, {"name", c.Name}, {"cas", c.CAS}}
	for _, req := range required {
		if !anyColumn(t, req.cands) {
			return fmt.Errorf("%w: %s (want one of %s)", ErrMissingColumn, req.field, strings.Join(req.cands, ", "))
		}
	}
	for _, a := range n.variant.Adducts {
		if t.HasColumn(a.CCSColumn) {
			return nil
		}
	}
	return fmt.Errorf("%w: no adduct CCS column for variant %s", ErrMissingColumn, n.variant.ID)
}

func anyColumn(t *Table, cands []string) bool {
	for _, c := range cands {
		if t.HasColumn(c) {
			return true
		}
	}
	return false
}

// Normalize maps one raw record into a row. Malformed numeric fields only
// degrade the field they belong to.
func (n *Normalizer) Normalize(raw RawRecord) Row {
	c := n.variant.Columns
	r := Row{
		Class:      label(raw.First(c.Class)),
		Subclass:   label(raw.First(c.Subclass)),
		Name:       label(raw.First(c.Name)),
		CAS:        raw.First(c.CAS),
		CompoundID: raw.First(c.CompoundID),
		Formula:    raw.First(c.Formula),
		Mass:       raw.First(c.Mass),
	}
	if r.Subclass == "" {
		r.Subclass = n.variant.SubclassDefault
	}
	r.StructureRef = StructureRef(raw.First(c.PubChemID), r.Name)

	var b strings.Builder
	for _, a := range n.variant.Adducts {
		ccs, ok := ParseNumber(raw[a.CCSColumn])
		if !ok {
			continue
		}
		v := AdductValue{Kind: a.Kind, Label: a.Label, CCS: ccs}
		if rsd, ok := ParseNumber(raw[a.RSDColumn]); ok && a.RSDColumn != "" {
			v.RSD = &rsd
		}
		r.Adducts = append(r.Adducts, v)
		b.WriteString(a.Label)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(ccs, 'f', 2, 64))
		b.WriteString("\n")
	}
	r.CCSAvailable = len(r.Adducts) > 0
	r.CCSDisplay = b.String()
	return r
}

// NormalizeAll normalizes every record, drops rows without CCS values and
// collects rows whose declared mass needs review.
func (n *Normalizer) NormalizeAll(records []RawRecord) Result {
	res := Result{Rows: make([]Row, 0, len(records))}
	for _, raw := range records {
		r := n.Normalize(raw)
		if !r.CCSAvailable {
			res.Dropped++
			continue
		}
		if rev := n.annotate(&r); rev != nil {
			res.Review = append(res.Review, *rev)
		}
		res.Rows = append(res.Rows, r)
	}
	if res.Dropped > 0 {
		n.log.Debug("dropped %d rows without CCS values", res.Dropped)
	}
	return res
}

// annotate fills the estimated weight of r and returns a review entry when
// the declared mass is off or the formula cannot be resolved.
func (n *Normalizer) annotate(r *Row) *MassReview {
	w, ok, err := n.estimator.Weight(r.Formula)
	base := MassReview{Name: r.Name, CAS: r.CAS, Formula: r.Formula, Mass: r.Mass}
	switch {
	case errors.Is(err, chem.ErrUnknownElement):
		n.log.Warn("formula of %s (%s): %v", r.Name, r.CAS, err)
		base.Reason, base.Detail = ReasonUnknownElement, err.Error()
		return &base
	case errors.Is(err, chem.ErrNoElements):
		n.log.Warn("formula of %s (%s): %v", r.Name, r.CAS, err)
		base.Reason, base.Detail = ReasonNoElements, err.Error()
		return &base
	case err != nil, !ok:
		return nil
	}
	r.EstimatedMass, r.HasEstimate = w, true
	delta, flagged := chem.Discrepant(w, r.Mass, n.tolerance)
	if !flagged {
		return nil
	}
	base.Reason, base.Estimate, base.Delta = ReasonMassDiscrepancy, w, delta
	return &base
}

func label(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// StructureRef resolves the structure image reference: "cid/<id>" when a
// PubChem id is present, otherwise "name/<component-encoded name>".
func StructureRef(pubchemID, name string) string {
	if id := strings.TrimSpace(pubchemID); id != "" {
		return "cid/" + id
	}
	return "name/" + EncodeComponent(name)
}

// EncodeComponent percent-encodes s the way URI components are encoded in
// browsers: letters, digits and -_.!~*'() are kept, everything else is
// escaped byte by byte.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
