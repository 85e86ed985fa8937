package dataset

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/KaramelBytes/ccsdb/internal/fetch"
)

// RawRecord maps column name to the raw field text of one data line.
type RawRecord map[string]string

// First returns the first non-empty value among the candidate columns.
func (r RawRecord) First(cols []string) string {
	for _, c := range cols {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

// Table is the ordered result of parsing a dataset file.
type Table struct {
	Source  string
	Columns []string
	Records []RawRecord
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Load fetches location through g and parses it with the reader registered for
// its extension. delim 0 sniffs by extension (.csv is comma, otherwise tab).
func Load(ctx context.Context, g fetch.Getter, location string, delim rune) (*Table, error) {
	data, err := g.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if delim == 0 {
		delim = sniffDelimiter(location)
	}
	t, err := readerFor(location).Read(data, delim)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path.Base(location), err)
	}
	t.Source = location
	return t, nil
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return ','
	}
	return '\t'
}
