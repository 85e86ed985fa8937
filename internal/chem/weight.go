package chem

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnknownElement is returned when a formula term has no periodic-table entry.
	ErrUnknownElement = errors.New("unknown element symbol")
	// ErrNoElements is returned for a non-empty formula without any element term.
	ErrNoElements = errors.New("formula has no element terms")
)

// NoFormula is the sentinel the datasets use for a missing formula.
const NoFormula = "N/A"

// One uppercase letter, optional lowercase letter, optional 1-2 digit count.
// Three-digit subscripts are not supported: "C100" reads as C10 and a stray 0.
var termPattern = regexp.MustCompile(`[A-Z][a-z]?[0-9]{0,2}`)

// Term is one (symbol, count) pair of a formula.
type Term struct {
	Symbol string
	Count  int
}

// ParseFormula tokenizes formula into consecutive terms. Characters that do not
// start a term (charges, brackets, dots) are skipped.
func ParseFormula(formula string) []Term {
	matches := termPattern.FindAllString(formula, -1)
	terms := make([]Term, 0, len(matches))
	for _, m := range matches {
		i := 1
		if len(m) > 1 && m[1] >= 'a' && m[1] <= 'z' {
			i = 2
		}
		count := 1
		if digits := m[i:]; digits != "" {
			n, err := strconv.Atoi(digits)
			if err == nil {
				count = n
			}
		}
		terms = append(terms, Term{Symbol: m[:i], Count: count})
	}
	return terms
}

// Estimator computes molecular weights from formulas.
type Estimator struct {
	table *PeriodicTable
}

// NewEstimator returns an estimator over table; nil uses the embedded table.
func NewEstimator(table *PeriodicTable) *Estimator {
	if table == nil {
		table = DefaultPeriodicTable()
	}
	return &Estimator{table: table}
}

// Weight returns the summed atomic mass of formula.
// ok is false when there is nothing to estimate (empty formula or "N/A");
// that is not an error and must not be treated as a discrepancy.
// An unresolvable symbol is reported as ErrUnknownElement instead of being
// dropped from the sum.
func (e *Estimator) Weight(formula string) (weight float64, ok bool, err error) {
	f := strings.TrimSpace(formula)
	if f == "" || f == NoFormula {
		return 0, false, nil
	}
	terms := ParseFormula(f)
	if len(terms) == 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrNoElements, formula)
	}
	var total float64
	for _, t := range terms {
		m, found := e.table.Mass(t.Symbol)
		if !found {
			return 0, false, fmt.Errorf("%w: %s in %q", ErrUnknownElement, t.Symbol, formula)
		}
		total += m * float64(t.Count)
	}
	return total, true, nil
}

// Leading decimal number, as a lenient float reader would accept it.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s ("12.5 (n=3)" reads 12.5).
// ok is false unless the result is a finite number.
func ParseNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Discrepant reports whether an estimate differs from the declared mass by more
// than tol. The declared mass is read with ParseNumber; one that does not parse
// is never discrepant.
func Discrepant(estimate float64, declared string, tol float64) (delta float64, flagged bool) {
	d, ok := ParseNumber(declared)
	if !ok {
		return 0, false
	}
	delta = estimate - d
	return delta, math.Abs(delta) > tol
}
