package session

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/export"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/pathway"
	"github.com/KaramelBytes/ccsdb/internal/table"
)

// Scope selects which rows an export covers.
type Scope string

const (
	ScopePage   Scope = "page"
	ScopeSearch Scope = "search"
)

// ParseScope maps a flag or query value to a Scope; "" means search.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopePage:
		return ScopePage, nil
	case "", ScopeSearch, "all":
		return ScopeSearch, nil
	}
	return "", fmt.Errorf("unknown export scope %q (want page or search)", s)
}

// TableSession owns the interaction state of one table: sort order, facet
// selection and paging over a shared immutable dataset.
type TableSession struct {
	data     *Dataset
	model    *table.Model
	cascade  *facet.Cascade
	page     int
	pageSize int
}

// Options are the current facet option lists.
type Options struct {
	Classes    []string        `json:"classes"`
	Subclasses []string        `json:"subclasses,omitempty"`
	Pathways   []pathway.Entry `json:"pathways,omitempty"`
}

// New opens a session over d. pageSize <= 0 uses 10.
func New(d *Dataset, pageSize int) (*TableSession, error) {
	m, err := table.New(d.Rows, d.Variant)
	if err != nil {
		return nil, err
	}
	var resolver facet.Resolver
	if d.Catalog != nil {
		resolver = d.Catalog
	}
	c := facet.New(d.Rows, resolver, facet.Options{
		SubclassFacet:  d.Variant.SubclassFacet,
		MissingPathway: d.Variant.MissingPathway,
	})
	if pageSize <= 0 {
		pageSize = 10
	}
	return &TableSession{data: d, model: m, cascade: c, page: 1, pageSize: pageSize}, nil
}

// Dataset returns the shared dataset.
func (s *TableSession) Dataset() *Dataset { return s.data }

// State returns the facet selection.
func (s *TableSession) State() facet.State { return s.cascade.State() }

// Order returns the active sort keys.
func (s *TableSession) Order() []table.SortKey { return s.model.Order() }

// SetClasses selects classes; paging restarts.
func (s *TableSession) SetClasses(vals []string) {
	s.cascade.SetClasses(vals)
	s.page = 1
}

// SetSubclasses selects subclasses; paging restarts.
func (s *TableSession) SetSubclasses(vals []string) error {
	if err := s.cascade.SetSubclasses(vals); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// SetPathway selects a pathway; paging restarts.
func (s *TableSession) SetPathway(id string) error {
	if err := s.cascade.SetPathway(id); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// SetSearch sets the free-text search; paging restarts.
func (s *TableSession) SetSearch(q string) {
	s.cascade.SetSearch(q)
	s.page = 1
}

// Apply replaces the whole facet selection.
func (s *TableSession) Apply(st facet.State) error {
	if err := s.cascade.Apply(st); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// Sort replaces the sort order; nil restores the default.
func (s *TableSession) Sort(keys []table.SortKey) error {
	if err := s.model.Sort(keys); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// ClickGroupHeader toggles the order through a group header of level.
func (s *TableSession) ClickGroupHeader(level string) error {
	if err := s.model.ClickGroupHeader(level); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// SetPage moves to a 1-based page; out-of-range values are clamped on read.
func (s *TableSession) SetPage(p int) { s.page = p }

// SetPageSize changes the page length and restarts paging.
func (s *TableSession) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
		s.page = 1
	}
}

// View returns the applied rows under the active order.
func (s *TableSession) View() []dataset.Row { return s.model.Apply(s.cascade.Applied()) }

// Page returns the current page of the view with its group boundaries.
func (s *TableSession) Page() table.Page {
	return table.Paginate(s.View(), s.model.Grouping(), s.page, s.pageSize)
}

// Options returns the current facet option lists.
func (s *TableSession) Options() Options {
	o := Options{Classes: s.cascade.ClassOptions(), Subclasses: s.cascade.SubclassOptions()}
	if s.data.Catalog != nil {
		o.Pathways = s.data.Catalog.Options()
	}
	return o
}

// PathwayLabel is the display name of the current pathway selection.
func (s *TableSession) PathwayLabel() string {
	id := s.cascade.State().Pathway
	if s.data.Catalog != nil {
		if n, ok := s.data.Catalog.Name(id); ok {
			return n
		}
	}
	if id == facet.PathwayNone {
		return pathway.NoFilterName
	}
	return id
}

// Overlay builds the diagram overlay of the selected pathway from the applied
// rows. ok is false when no concrete pathway is selected.
func (s *TableSession) Overlay(serviceBase string, style pathway.Style) (*pathway.Overlay, bool) {
	id := s.cascade.State().Pathway
	return pathway.BuildOverlay(id, s.PathwayLabel(), serviceBase, s.View(), style)
}

// ExportTarget returns the CAS ids and file name an export of scope covers.
func (s *TableSession) ExportTarget(scope Scope, es dataset.ExportSource) (ids []string, name string) {
	if scope == ScopePage {
		p := s.Page()
		return export.IDs(p.Rows), export.PageFileName(p.Number, p.Count, es.FileSuffix)
	}
	return export.IDs(s.View()), export.SearchFileName(s.PathwayLabel(), s.cascade.State().Search, es.FileSuffix)
}

// Query is a complete table request: facet selection, order, group header
// clicks (applied after Order, in sequence) and paging.
type Query struct {
	Classes    []string
	Subclasses []string
	Pathway    string
	Search     string
	Order      string
	Toggles    []string
	Page       int
	Size       int
}

// ApplyQuery replays q onto the session.
func (s *TableSession) ApplyQuery(q Query) error {
	if err := s.Apply(facet.State{Classes: q.Classes, Subclasses: q.Subclasses, Pathway: q.Pathway, Search: q.Search}); err != nil {
		return err
	}
	keys, err := table.ParseOrder(q.Order)
	if err != nil {
		return err
	}
	if err := s.Sort(keys); err != nil {
		return err
	}
	for _, level := range q.Toggles {
		if err := s.ClickGroupHeader(level); err != nil {
			return err
		}
	}
	s.SetPageSize(q.Size)
	if q.Page > 0 {
		s.SetPage(q.Page)
	}
	return nil
}
