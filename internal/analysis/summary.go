package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
)

// Options controls the CCS summary.
type Options struct {
	// OutlierThreshold counts values with robust |z| (via MAD) above it; 0 disables.
	OutlierThreshold float64
	// MinCorrelationPairs is the minimum number of rows needed to report a
	// mass/CCS correlation for an adduct.
	MinCorrelationPairs int
}

// DefaultOptions returns reasonable defaults for the summary.
func DefaultOptions() Options {
	return Options{OutlierThreshold: 3.5, MinCorrelationPairs: 3}
}

// Report is a markdown-friendly summary of the visible CCS rows.
type Report struct {
	Title    string
	Variant  string
	Rows     int
	Dropped  int
	Adducts  []AdductSummary
	Classes  []ClassCount
	Review   []dataset.MassReview
	Warnings []string
}

// AdductSummary captures statistics of one adduct kind's CCS values.
type AdductSummary struct {
	Kind   dataset.AdductKind
	Label  string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Std    float64
	Median float64
	MAD    float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Pearson r between declared mass and CCS; valid when HasMassCorr.
	MassCorr    float64
	HasMassCorr bool
}

// ClassCount is the row count of one class.
type ClassCount struct {
	Class      string
	Rows       int
	Subclasses int
}

// Summarize computes per-adduct statistics and per-class counts over rows.
// Adducts are reported in the variant's priority order.
func Summarize(rows []dataset.Row, v *dataset.Variant, review []dataset.MassReview, dropped int, opt Options) *Report {
	r := &Report{Title: v.Title, Variant: v.ID, Rows: len(rows), Dropped: dropped, Review: review}

	type series struct{ ccs, mass []float64 }
	byKind := map[dataset.AdductKind]*series{}
	classes := map[string]map[string]bool{}
	counts := map[string]int{}
	for i := range rows {
		row := &rows[i]
		counts[row.Class]++
		if classes[row.Class] == nil {
			classes[row.Class] = map[string]bool{}
		}
		classes[row.Class][row.Subclass] = true
		mass, massOK := dataset.ParseNumber(row.Mass)
		for _, a := range row.Adducts {
			s := byKind[a.Kind]
			if s == nil {
				s = &series{}
				byKind[a.Kind] = s
			}
			s.ccs = append(s.ccs, a.CCS)
			if massOK {
				s.mass = append(s.mass, mass)
			} else {
				s.mass = append(s.mass, math.NaN())
			}
		}
	}

	for _, col := range v.Adducts {
		s := byKind[col.Kind]
		if s == nil || len(s.ccs) == 0 {
			continue
		}
		as := AdductSummary{Kind: col.Kind, Label: col.Label, Count: len(s.ccs)}
		as.Min, _ = stats.Min(s.ccs)
		as.Max, _ = stats.Max(s.ccs)
		as.Median, _ = stats.Median(s.ccs)
		as.MAD, _ = stats.MedianAbsoluteDeviation(s.ccs)
		as.Mean, as.Std = stat.MeanStdDev(s.ccs, nil)
		if math.IsNaN(as.Std) {
			as.Std = 0
		}
		if opt.OutlierThreshold > 0 && as.MAD > 0 {
			as.OutlierThreshold = opt.OutlierThreshold
			for _, x := range s.ccs {
				// 0.6745 scales MAD to the standard deviation of a normal.
				z := math.Abs(0.6745 * (x - as.Median) / as.MAD)
				if z > opt.OutlierThreshold {
					as.OutliersCount++
				}
				as.OutliersMaxAbsZ = math.Max(as.OutliersMaxAbsZ, z)
			}
		}
		if xs, ys := pairs(s.mass, s.ccs); len(xs) >= max(opt.MinCorrelationPairs, 2) {
			if c := stat.Correlation(xs, ys, nil); !math.IsNaN(c) {
				as.MassCorr, as.HasMassCorr = c, true
			}
		}
		r.Adducts = append(r.Adducts, as)
	}

	for c, subs := range classes {
		r.Classes = append(r.Classes, ClassCount{Class: c, Rows: counts[c], Subclasses: len(subs)})
	}
	sort.Slice(r.Classes, func(i, j int) bool {
		if r.Classes[i].Rows == r.Classes[j].Rows {
			return r.Classes[i].Class < r.Classes[j].Class
		}
		return r.Classes[i].Rows > r.Classes[j].Rows
	})
	if dropped > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d rows without any CCS value were excluded", dropped))
	}
	return r
}

// pairs drops positions where x is NaN.
func pairs(x, y []float64) ([]float64, []float64) {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CCS SUMMARY]\n")
	if r.Title != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s (%s)\n", r.Title, r.Variant))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Classes: %d\n\n", len(r.Classes)))

	b.WriteString("[ADDUCTS]\n")
	if len(r.Adducts) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range r.Adducts {
		b.WriteString(fmt.Sprintf("- %s (n=%d): min %.2f, max %.2f, mean %.2f, std %.2f, median %.2f",
			safeVal(a.Label), a.Count, a.Min, a.Max, a.Mean, a.Std, a.Median))
		if a.OutlierThreshold > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", a.OutliersCount, a.OutlierThreshold))
			if a.OutliersMaxAbsZ > 0 {
				b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", a.OutliersMaxAbsZ))
			}
		}
		if a.HasMassCorr {
			b.WriteString(fmt.Sprintf("; mass~CCS r=%.3f", a.MassCorr))
		}
		b.WriteString("\n")
	}

	if len(r.Classes) > 0 {
		b.WriteString("\n[CLASSES]\n")
		b.WriteString("| Class | Rows | Subclasses |\n|---|---|---|\n")
		for _, c := range r.Classes {
			b.WriteString(fmt.Sprintf("| %s | %d | %d |\n", safeVal(c.Class), c.Rows, c.Subclasses))
		}
	}

	if len(r.Review) > 0 {
		b.WriteString("\n[MASS REVIEW]\n")
		for _, m := range r.Review {
			switch m.Reason {
			case dataset.ReasonMassDiscrepancy:
				b.WriteString(fmt.Sprintf("- %s (%s): %s declared %s, estimated %.2f (Δ %+.2f)\n",
					safeVal(m.Name), m.CAS, m.Formula, m.Mass, m.Estimate, m.Delta))
			default:
				b.WriteString(fmt.Sprintf("- %s (%s): %s, %s\n", safeVal(m.Name), m.CAS, m.Reason, m.Detail))
			}
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
