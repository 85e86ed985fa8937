package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/utils"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an output format.
type Format string

const (
	Text Format = "text"
	XLSX Format = "xlsx"
)

// ParseFormat maps a flag or query value to a Format; "" means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", Text, "tsv", "csv":
		return Text, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// File is a generated download: suggested name, media type and contents.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Selection is the subset of an original source file chosen for export.
type Selection struct {
	Header []string
	// Kept is the description row preserved after the header, if any.
	Kept []string
	Rows [][]string
}

// Select filters the source table to rows whose id column is in ids, in file
// order. The id column follows the source's own casing. With keepFirstRow the
// first data row is preserved as is, regardless of the filter.
func Select(src *dataset.Table, ids facet.Set, es dataset.ExportSource) (*Selection, error) {
	if !src.HasColumn(es.IDColumn) {
		return nil, fmt.Errorf("%w: %s in %s", dataset.ErrMissingColumn, es.IDColumn, es.File)
	}
	sel := &Selection{Header: src.Columns}
	records := src.Records
	if es.KeepFirstRow && len(records) > 0 {
		sel.Kept = values(src.Columns, records[0])
		records = records[1:]
	}
	for _, rec := range records {
		if ids.Has(rec[es.IDColumn]) {
			sel.Rows = append(sel.Rows, values(src.Columns, rec))
		}
	}
	return sel, nil
}

func values(cols []string, rec dataset.RawRecord) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = rec[c]
	}
	return out
}

// Text renders the selection re-joined with delim: the header line, the kept
// row if any, then the rows separated by newlines with no trailing newline.
// Fields are not quoted.
func (s *Selection) Text(delim string) string {
	var b strings.Builder
	b.WriteString(strings.Join(s.Header, delim))
	b.WriteString("\n")
	if s.Kept != nil {
		b.WriteString(strings.Join(s.Kept, delim))
		b.WriteString("\n")
	}
	for i, r := range s.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(r, delim))
	}
	return b.String()
}

// XLSX renders the selection as a single-sheet workbook.
func (s *Selection) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	rows := make([][]string, 0, len(s.Rows)+2)
	rows = append(rows, s.Header)
	if s.Kept != nil {
		rows = append(rows, s.Kept)
	}
	rows = append(rows, s.Rows...)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(r))
		for j, v := range r {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Exporter reads original source files through a Getter.
type Exporter struct {
	getter  fetch.Getter
	dataDir string
}

// NewExporter resolves source files against dataDir.
func NewExporter(g fetch.Getter, dataDir string) *Exporter {
	return &Exporter{getter: g, dataDir: dataDir}
}

// Export re-reads the source file and produces the download for ids.
// name is the target file name; for XLSX the extension is replaced.
func (e *Exporter) Export(ctx context.Context, ids []string, es dataset.ExportSource, format Format, name string) (*File, error) {
	loc := utils.ResolveLocation(e.dataDir, es.File)
	src, err := dataset.Load(ctx, e.getter, loc, firstRune(es.InputDelimiter, '\t'))
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", es.Name, err)
	}
	sel, err := Select(src, facet.NewSet(ids...), es)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", es.Name, err)
	}
	switch format {
	case Text, "":
		out := es.OutputDelimiter
		if out == "" {
			out = "\t"
		}
		ct := "text/tab-separated-values; charset=utf-8"
		if out == "," {
			ct = "text/csv; charset=utf-8"
		}
		return &File{Name: name, ContentType: ct, Data: []byte(sel.Text(out))}, nil
	case XLSX:
		b, err := sel.XLSX()
		if err != nil {
			return nil, err
		}
		return &File{
			Name:        replaceExt(name, ".xlsx"),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        b,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func firstRune(s string, def rune) rune {
	for _, r := range s {
		return r
	}
	return def
}

func replaceExt(name, ext string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i] + ext
	}
	return name + ext
}

// PageFileName names the export of one table page.
func PageFileName(page, pages int, suffix string) string {
	return fmt.Sprintf("page_%d_of_%d_%s", page, pages, suffix)
}

// SearchFileName names the export of the whole applied view. Path separators
// in the label and the search become "_" so the name stays a single element.
func SearchFileName(pathwayLabel, search, suffix string) string {
	return pathSep.Replace(strings.ReplaceAll(pathwayLabel, " ", "_")) + "_" + pathSep.Replace(search) + "_" + suffix
}

var pathSep = strings.NewReplacer("/", "_", "\\", "_")

// IDs collects the CAS identifiers of rows in order.
func IDs(rows []dataset.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CAS
	}
	return out
}
