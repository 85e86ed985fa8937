package facet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
)

// Reserved pathway selections.
const (
	PathwayNone    = ""
	PathwayMissing = "missing"
)

var (
	// ErrUnknownPathway is returned when a pathway id has no compound list.
	ErrUnknownPathway = errors.New("unknown pathway")
	// ErrFacetDisabled is returned when selecting on a facet the variant lacks.
	ErrFacetDisabled = errors.New("facet not available")
)

// Resolver maps a pathway id to its compound ids.
type Resolver interface {
	Compounds(id string) ([]string, bool)
}

// State is the current selection per facet plus the free-text search.
type State struct {
	Classes    []string `json:"classes,omitempty"`
	Subclasses []string `json:"subclasses,omitempty"`
	Pathway    string   `json:"pathway,omitempty"`
	Search     string   `json:"search,omitempty"`
}

// Options configures which facets a cascade offers.
type Options struct {
	SubclassFacet  bool
	MissingPathway bool
}

// Cascade narrows one immutable row set through the class, subclass and
// pathway facets and the search string. Option lists are recomputed only on
// the transitions that own them:
//
//	class change    -> subclass options
//	subclass change -> none
//	pathway change  -> class and subclass options
//	search change   -> none
//
// A recomputed list holds the distinct values of the applied rows, so it
// reflects every active facet and the search at the time of the change.
type Cascade struct {
	rows     []dataset.Row
	haystack []string
	resolver Resolver
	opts     Options

	state    State
	classes  Set
	subs     Set
	members  Set
	terms    []string
	applied  []dataset.Row
	classOpt []string
	subOpt   []string
}

// New builds a cascade over rows. A nil resolver leaves only the reserved
// pathway selections usable.
func New(rows []dataset.Row, resolver Resolver, opts Options) *Cascade {
	c := &Cascade{rows: rows, resolver: resolver, opts: opts, haystack: make([]string, len(rows))}
	for i := range rows {
		c.haystack[i] = searchText(&rows[i])
	}
	c.classOpt = Distinct(rows, classOf)
	if opts.SubclassFacet {
		c.subOpt = Distinct(rows, subclassOf)
	}
	c.apply()
	return c
}

// SetResolver attaches the pathway map once it becomes available.
func (c *Cascade) SetResolver(r Resolver) { c.resolver = r }

// PathwayEnabled reports whether named pathway selections can be resolved.
func (c *Cascade) PathwayEnabled() bool { return c.resolver != nil }

// State returns a copy of the current selection.
func (c *Cascade) State() State {
	s := c.state
	s.Classes = append([]string(nil), s.Classes...)
	s.Subclasses = append([]string(nil), s.Subclasses...)
	return s
}

// Applied returns the rows passing every facet and the search, in load order.
func (c *Cascade) Applied() []dataset.Row { return c.applied }

// ClassOptions returns the offered class values, ascending.
func (c *Cascade) ClassOptions() []string { return c.classOpt }

// SubclassOptions returns the offered subclass values, ascending. It is empty
// when the variant has no subclass facet.
func (c *Cascade) SubclassOptions() []string { return c.subOpt }

// SetClasses selects zero or more classes (OR) and recomputes the subclass
// options. The subclass selection is kept.
func (c *Cascade) SetClasses(vals []string) {
	c.state.Classes = clean(vals)
	c.classes = setOrNil(c.state.Classes)
	c.apply()
	if c.opts.SubclassFacet {
		c.subOpt = Distinct(c.applied, subclassOf)
	}
}

// SetSubclasses selects zero or more subclasses (OR). No option list changes.
func (c *Cascade) SetSubclasses(vals []string) error {
	vals = clean(vals)
	if !c.opts.SubclassFacet && len(vals) > 0 {
		return fmt.Errorf("%w: subclass", ErrFacetDisabled)
	}
	c.state.Subclasses = vals
	c.subs = setOrNil(vals)
	c.apply()
	return nil
}

// SetPathway selects a single pathway, "" for none or "missing" for rows
// without a compound id. Both class and subclass options are recomputed.
func (c *Cascade) SetPathway(id string) error {
	id = strings.TrimSpace(id)
	var members Set
	switch id {
	case PathwayNone:
	case PathwayMissing:
		if !c.opts.MissingPathway {
			return fmt.Errorf("%w: %q", ErrUnknownPathway, id)
		}
	default:
		if c.resolver == nil {
			return fmt.Errorf("%w: pathway resources not loaded", ErrFacetDisabled)
		}
		cs, ok := c.resolver.Compounds(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPathway, id)
		}
		members = NewSet(cs...)
	}
	c.state.Pathway = id
	c.members = members
	c.apply()
	c.classOpt = Distinct(c.applied, classOf)
	if c.opts.SubclassFacet {
		c.subOpt = Distinct(c.applied, subclassOf)
	}
	return nil
}

// SetSearch sets the free-text search. Option lists are not recomputed.
func (c *Cascade) SetSearch(q string) {
	c.state.Search = strings.TrimSpace(q)
	c.terms = strings.Fields(strings.ToLower(q))
	c.apply()
}

// Apply replaces the whole selection, in cascade order, starting from an
// empty one. On error the previous selection is kept.
func (c *Cascade) Apply(s State) error {
	prev := *c
	c.state = State{}
	c.classes, c.subs, c.members, c.terms = nil, nil, nil, nil
	if err := c.SetPathway(s.Pathway); err != nil {
		*c = prev
		return err
	}
	c.SetClasses(s.Classes)
	if err := c.SetSubclasses(s.Subclasses); err != nil {
		*c = prev
		return err
	}
	c.SetSearch(s.Search)
	return nil
}

func classOf(r *dataset.Row) string    { return r.Class }
func subclassOf(r *dataset.Row) string { return r.Subclass }

func (c *Cascade) apply() {
	out := make([]dataset.Row, 0, len(c.rows))
	for i := range c.rows {
		r := &c.rows[i]
		if !match(c.classes, r.Class) || !match(c.subs, r.Subclass) || !c.pathwayMatch(r) {
			continue
		}
		if !containsAll(c.haystack[i], c.terms) {
			continue
		}
		out = append(out, *r)
	}
	c.applied = out
}

func (c *Cascade) pathwayMatch(r *dataset.Row) bool {
	switch c.state.Pathway {
	case PathwayNone:
		return true
	case PathwayMissing:
		return !r.HasCompoundID()
	}
	return r.HasCompoundID() && c.members.Has(r.CompoundID)
}

func match(sel Set, v string) bool { return sel == nil || sel.Has(v) }

func containsAll(hay string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}

func searchText(r *dataset.Row) string {
	return strings.ToLower(strings.Join([]string{
		r.Class, r.Subclass, r.CompoundID, r.Name, r.CAS, r.Formula, r.Mass, r.CCSDisplay,
	}, " "))
}

func clean(vals []string) []string {
	var out []string
	seen := make(Set)
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen.Has(v) {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func setOrNil(vals []string) Set {
	if len(vals) == 0 {
		return nil
	}
	return NewSet(vals...)
}
