package pathway

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/logging"
)

// Display names of the reserved selections.
const (
	NoFilterName = "No Pathway Filter"
	MissingName  = "KEGG ID Unknown"
)

// Map is the compound list resource: pathway id to ordered compound ids.
type Map map[string][]string

// ParseCompoundList decodes the compound list JSON object.
func ParseCompoundList(b []byte) (Map, error) {
	var m Map
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse compound list: %w", err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Compounds returns the compound ids of pathway id.
func (m Map) Compounds(id string) ([]string, bool) {
	cs, ok := m[id]
	return cs, ok
}

// Entry is one pathway option.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ParsePathwayList reads "ns:id<TAB>name" lines, keeping the id after the
// colon, sorted by name. Lines without a namespaced id are skipped.
func ParsePathwayList(b []byte, log *logging.Logger) []Entry {
	if log == nil {
		log = logging.Default
	}
	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(b))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		token, name, _ := strings.Cut(line, "\t")
		_, id, ok := strings.Cut(token, ":")
		if !ok || strings.TrimSpace(id) == "" {
			log.Warn("pathway list line %d: no namespaced id in %q", n, token)
			continue
		}
		out = append(out, Entry{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Catalog is the pathway facet's view of the resources: the compound map and
// the offered options with reserved entries pinned first.
type Catalog struct {
	compounds Map
	options   []Entry
	names     map[string]string
}

// NewCatalog keeps only pathways whose compound list is non-empty and shares
// at least one compound with observed. The first name of a duplicated id wins.
func NewCatalog(m Map, list []Entry, observed facet.Set, withMissing bool) *Catalog {
	c := &Catalog{compounds: m, names: map[string]string{}}
	c.options = append(c.options, Entry{ID: facet.PathwayNone, Name: NoFilterName})
	if withMissing {
		c.options = append(c.options, Entry{ID: facet.PathwayMissing, Name: MissingName})
	}
	for _, e := range c.options {
		c.names[e.ID] = e.Name
	}
	for _, e := range list {
		cs := m[e.ID]
		if len(cs) == 0 || !observed.ContainsAny(cs) {
			continue
		}
		if _, dup := c.names[e.ID]; dup {
			continue
		}
		c.names[e.ID] = e.Name
		c.options = append(c.options, e)
	}
	return c
}

// Options returns the offered pathway entries.
func (c *Catalog) Options() []Entry { return c.options }

// Name returns the display name of an offered id.
func (c *Catalog) Name(id string) (string, bool) {
	n, ok := c.names[id]
	return n, ok
}

// Compounds resolves an offered pathway id. Ids filtered out of the options
// do not resolve.
func (c *Catalog) Compounds(id string) ([]string, bool) {
	if id == facet.PathwayNone || id == facet.PathwayMissing {
		return nil, false
	}
	if _, ok := c.names[id]; !ok {
		return nil, false
	}
	return c.compounds.Compounds(id)
}
