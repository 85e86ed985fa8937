package pathway

import (
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/facet"
)

// NoSelectionText is shown instead of a diagram for the reserved selections.
const NoSelectionText = "No Pathway Selected"

// Style supplies the tooltip and color callbacks for highlighted compounds.
type Style struct {
	Tooltip func(r *dataset.Row) string
	Color   func(r *dataset.Row) string
}

// DefaultStyle shows the name and CCS text and paints every hit red.
func DefaultStyle() Style {
	return Style{
		Tooltip: func(r *dataset.Row) string { return r.Name + "<br>" + r.CCSDisplay },
		Color:   func(*dataset.Row) string { return "red" },
	}
}

// Highlight is one compound marked on the diagram.
type Highlight struct {
	CompoundID string `json:"compoundId"`
	Name       string `json:"name"`
	CAS        string `json:"cas"`
	CCS        string `json:"ccs"`
	Tooltip    string `json:"tooltip"`
	Color      string `json:"color"`
}

// Overlay is what the diagram collaborator needs to draw one pathway.
type Overlay struct {
	PathwayID  string               `json:"pathwayId"`
	Name       string               `json:"name"`
	DiagramURL string               `json:"diagramUrl"`
	Highlights map[string]Highlight `json:"highlights"`
}

// DiagramURL returns the diagram service location of a pathway. Reference
// map ids are served as their human-specific counterpart.
func DiagramURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Replace(id, "map", "hsa", 1)
}

// BuildOverlay builds the overlay of pathway id from the applied rows. The
// first row of each compound id wins. ok is false for the reserved selections.
func BuildOverlay(id, name, serviceBase string, rows []dataset.Row, style Style) (ov *Overlay, ok bool) {
	if id == facet.PathwayNone || id == facet.PathwayMissing {
		return nil, false
	}
	if style.Tooltip == nil || style.Color == nil {
		def := DefaultStyle()
		if style.Tooltip == nil {
			style.Tooltip = def.Tooltip
		}
		if style.Color == nil {
			style.Color = def.Color
		}
	}
	ov = &Overlay{PathwayID: id, Name: name, DiagramURL: DiagramURL(serviceBase, id), Highlights: map[string]Highlight{}}
	for i := range rows {
		r := &rows[i]
		if !r.HasCompoundID() {
			continue
		}
		if _, seen := ov.Highlights[r.CompoundID]; seen {
			continue
		}
		ov.Highlights[r.CompoundID] = Highlight{
			CompoundID: r.CompoundID,
			Name:       r.Name,
			CAS:        r.CAS,
			CCS:        r.CCSDisplay,
			Tooltip:    style.Tooltip(r),
			Color:      style.Color(r),
		}
	}
	return ov, true
}
