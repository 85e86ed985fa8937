package table

import (
	"fmt"
	"iter"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
)

// GroupHeader is one header row to insert: the level and its new value.
type GroupHeader struct {
	Level string `json:"level"`
	Value string `json:"value"`
}

// Boundary marks a header insertion point before view row Row.
type Boundary struct {
	Row     int           `json:"row"`
	Headers []GroupHeader `json:"headers"`
}

// Boundaries yields the group header insertion points of a visible slice.
// Each grouping level is compared independently against the preceding row,
// so a boundary carries every level whose value changes there. The first row
// of the slice always opens every level.
func Boundaries(view []dataset.Row, grouping []string) iter.Seq[Boundary] {
	return func(yield func(Boundary) bool) {
		for i := range view {
			var hs []GroupHeader
			for _, level := range grouping {
				v, _ := view[i].Column(level)
				if i > 0 {
					if prev, _ := view[i-1].Column(level); prev == v {
						continue
					}
				}
				hs = append(hs, GroupHeader{Level: level, Value: v})
			}
			if len(hs) == 0 {
				continue
			}
			if !yield(Boundary{Row: i, Headers: hs}) {
				return
			}
		}
	}
}

// Page is one visible slice of an applied view.
type Page struct {
	Number     int           `json:"page"`
	Count      int           `json:"pages"`
	Size       int           `json:"size"`
	Total      int           `json:"total"`
	Rows       []dataset.Row `json:"rows"`
	Boundaries []Boundary    `json:"boundaries"`
}

// Paginate cuts the 1-based page out of view and computes its boundaries.
// Out-of-range page numbers are clamped; an empty view has one empty page.
func Paginate(view []dataset.Row, grouping []string, page, size int) Page {
	if size <= 0 {
		size = 10
	}
	count := (len(view) + size - 1) / size
	if count == 0 {
		count = 1
	}
	page = max(1, min(page, count))
	start := min((page-1)*size, len(view))
	end := min(start+size, len(view))
	p := Page{Number: page, Count: count, Size: size, Total: len(view), Rows: view[start:end]}
	for b := range Boundaries(p.Rows, grouping) {
		p.Boundaries = append(p.Boundaries, b)
	}
	return p
}

// Markdown renders the page as grouped Markdown: a heading per boundary
// header and a table per contiguous group.
func (p Page) Markdown(title string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	b.WriteString(fmt.Sprintf("Page %d of %d (%d rows)\n\n", p.Number, p.Count, p.Total))
	if len(p.Rows) == 0 {
		b.WriteString("_No matching rows._\n")
		return b.String()
	}
	next := 0
	open := false
	for i := range p.Rows {
		if next < len(p.Boundaries) && p.Boundaries[next].Row == i {
			if open {
				b.WriteString("\n")
			}
			for _, h := range p.Boundaries[next].Headers {
				depth := "##"
				if h.Level == dataset.ColSubclass {
					depth = "###"
				}
				b.WriteString(fmt.Sprintf("%s %s\n\n", depth, cell(h.Value)))
			}
			b.WriteString("| Compound ID | Name | CAS | Formula | Mass | CCS |\n")
			b.WriteString("|---|---|---|---|---|---|\n")
			open = true
			next++
		}
		r := p.Rows[i]
		ccs := strings.ReplaceAll(strings.TrimSuffix(r.CCSDisplay, "\n"), "\n", "<br>")
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			cell(r.CompoundID), cell(r.Name), cell(r.CAS), cell(r.Formula), cell(r.Mass), ccs))
	}
	return b.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
