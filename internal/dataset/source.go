package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Reader decodes one source format into a Table.
type Reader interface {
	CanRead(name string) bool
	Read(data []byte, delim rune) (*Table, error)
}

var readers []Reader

// RegisterReader adds a format reader to the registry. Later registrations
// do not override earlier ones for the same extension.
func RegisterReader(r Reader) {
	readers = append(readers, r)
}

func readerFor(name string) Reader {
	for _, r := range readers {
		if r.CanRead(name) {
			return r
		}
	}
	// Anything unrecognized is treated as delimited text.
	return delimitedReader{}
}

func init() {
	RegisterReader(xlsxReader{})
	RegisterReader(delimitedReader{})
}

type delimitedReader struct{}

func (delimitedReader) CanRead(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".tsv") || strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".txt")
}

func (delimitedReader) Read(data []byte, delim rune) (*Table, error) {
	return ReadDelimited(bytes.NewReader(data), delim)
}

// ReadDelimited parses a header-first delimited stream. Short rows are padded
// with empty fields; fields beyond the header are ignored.
func ReadDelimited(src io.Reader, delim rune) (*Table, error) {
	if delim == 0 {
		delim = '\t'
	}
	r := csv.NewReader(src)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty dataset")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.TrimSpace(h)
	}
	t := &Table{Columns: cols}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		t.Records = append(t.Records, toRecord(cols, rec))
	}
	return t, nil
}

func toRecord(cols, rec []string) RawRecord {
	out := make(RawRecord, len(cols))
	for i, c := range cols {
		if i < len(rec) {
			out[c] = rec[i]
		} else {
			out[c] = ""
		}
	}
	return out
}

type xlsxReader struct{}

func (xlsxReader) CanRead(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

// Read takes the first sheet; the delimiter is ignored.
func (xlsxReader) Read(data []byte, _ rune) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read header: empty dataset")
	}
	cols := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		cols[i] = strings.TrimSpace(h)
	}
	t := &Table{Columns: cols}
	for _, rec := range rows[1:] {
		if len(rec) == 0 {
			continue
		}
		t.Records = append(t.Records, toRecord(cols, rec))
	}
	return t, nil
}
