package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var embeddedVariants []byte

// ErrUnknownVariant is returned when a variant id has no table.
var ErrUnknownVariant = errors.New("unknown dataset variant")

// AdductKind is one of the fixed ion species the datasets report.
type AdductKind string

const (
	Protonated             AdductKind = "protonated"
	Sodiated               AdductKind = "sodiated"
	Deprotonated           AdductKind = "deprotonated"
	Potassiated            AdductKind = "potassiated"
	MolecularCation        AdductKind = "molecular-cation"
	RadicalCation          AdductKind = "radical-cation"
	DoublyProtonated       AdductKind = "doubly-protonated"
	Acetate                AdductKind = "acetate"
	Formate                AdductKind = "formate"
	ChlorineOxygenExchange AdductKind = "chlorine-oxygen-exchange"
	BromineOxygenExchange  AdductKind = "bromine-oxygen-exchange"
)

var knownKinds = map[AdductKind]bool{
	Protonated: true, Sodiated: true, Deprotonated: true, Potassiated: true,
	MolecularCation: true, RadicalCation: true, DoublyProtonated: true,
	Acetate: true, Formate: true, ChlorineOxygenExchange: true, BromineOxygenExchange: true,
}

// AdductColumn binds an adduct kind to its display label and source columns.
// The order of a variant's adducts is the display priority order.
type AdductColumn struct {
	Kind      AdductKind `yaml:"kind"`
	Label     string     `yaml:"label"`
	CCSColumn string     `yaml:"ccs_column"`
	RSDColumn string     `yaml:"rsd_column"`
}

// Columns lists candidate source columns per field; the first non-empty wins.
type Columns struct {
	Class      []string `yaml:"class"`
	Subclass   []string `yaml:"subclass"`
	Name       []string `yaml:"name"`
	CAS        []string `yaml:"cas"`
	Formula    []string `yaml:"formula"`
	Mass       []string `yaml:"mass"`
	CompoundID []string `yaml:"compound_id"`
	PubChemID  []string `yaml:"pubchem_id"`
}

// OrderSpec is one configured sort key.
type OrderSpec struct {
	Column string `yaml:"column"`
	Dir    string `yaml:"dir"`
}

// ExportSource describes an original data file rows can be exported from.
type ExportSource struct {
	Name            string `yaml:"name"`
	File            string `yaml:"file"`
	IDColumn        string `yaml:"id_column"`
	KeepFirstRow    bool   `yaml:"keep_first_row"`
	InputDelimiter  string `yaml:"input_delimiter"`
	OutputDelimiter string `yaml:"output_delimiter"`
	FileSuffix      string `yaml:"file_suffix"`
}

// Toggle modes for group header clicks.
const (
	TogglePaired = "paired"
	ToggleSingle = "single"
)

// Variant is the configuration table of one dataset deployment.
type Variant struct {
	ID              string         `yaml:"-"`
	Title           string         `yaml:"title"`
	DataFile        string         `yaml:"data_file"`
	Delimiter       string         `yaml:"delimiter"`
	Columns         Columns        `yaml:"columns"`
	SubclassDefault string         `yaml:"subclass_default"`
	Adducts         []AdductColumn `yaml:"adducts"`
	Grouping        []string       `yaml:"grouping"`
	DefaultOrder    []OrderSpec    `yaml:"default_order"`
	Toggle          string         `yaml:"toggle"`
	SubclassFacet   bool           `yaml:"subclass_facet"`
	MissingPathway  bool           `yaml:"missing_pathway"`
	Exports         []ExportSource `yaml:"exports"`
}

// Export returns the named export source; an empty name picks the first.
func (v *Variant) Export(name string) (ExportSource, bool) {
	for _, e := range v.Exports {
		if name == "" || strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return ExportSource{}, false
}

// DelimiterRune returns the configured dataset delimiter, or 0 to sniff.
func (v *Variant) DelimiterRune() rune { return firstRune(v.Delimiter) }

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func (v *Variant) validate() error {
	if v.DataFile == "" {
		return fmt.Errorf("variant %s: data_file is required", v.ID)
	}
	if len(v.Adducts) == 0 {
		return fmt.Errorf("variant %s: no adducts configured", v.ID)
	}
	for _, a := range v.Adducts {
		if !knownKinds[a.Kind] {
			return fmt.Errorf("variant %s: unknown adduct kind %q", v.ID, a.Kind)
		}
		if a.CCSColumn == "" {
			return fmt.Errorf("variant %s: adduct %s has no ccs_column", v.ID, a.Kind)
		}
	}
	switch v.Toggle {
	case "":
		v.Toggle = TogglePaired
	case TogglePaired, ToggleSingle:
	default:
		return fmt.Errorf("variant %s: unknown toggle mode %q", v.ID, v.Toggle)
	}
	if len(v.Grouping) > 2 {
		return fmt.Errorf("variant %s: at most two grouping levels", v.ID)
	}
	return nil
}

// Variants is a registry of variant tables keyed by id.
type Variants map[string]*Variant

// ParseVariants decodes a YAML document of variant tables.
func ParseVariants(b []byte) (Variants, error) {
	var raw map[string]*Variant
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse variants: %w", err)
	}
	out := make(Variants, len(raw))
	for id, v := range raw {
		if v == nil {
			continue
		}
		v.ID = id
		if err := v.validate(); err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// LoadVariants reads variant tables from path; an empty path yields the
// embedded tables.
func LoadVariants(path string) (Variants, error) {
	if path == "" {
		return DefaultVariants(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	return ParseVariants(b)
}

var defaultVariants = sync.OnceValues(func() (Variants, error) {
	return ParseVariants(embeddedVariants)
})

// DefaultVariants returns the variant tables compiled into the binary.
func DefaultVariants() Variants {
	v, err := defaultVariants()
	if err != nil {
		panic(err)
	}
	return v
}

// Lookup returns the variant with id.
func (vs Variants) Lookup(id string) (*Variant, error) {
	v, ok := vs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownVariant, id, strings.Join(vs.IDs(), ", "))
	}
	return v, nil
}

// IDs returns the sorted variant ids.
func (vs Variants) IDs() []string {
	ids := make([]string, 0, len(vs))
	for id := range vs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
