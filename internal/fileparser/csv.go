package fileparser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// csvEncodings is the fixed preference order for decoding CSV bytes:
// UTF-8 first, then the two legacy single-byte fallbacks carriers still
// export in.
var csvEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8},
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// headerSampleRows is how many leading rows the multi-row-header
// heuristic inspects.
const headerSampleRows = 5

func parseCSV(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStructure, err)
	}

	var lastParseErr error
	decoded := false

	for _, e := range csvEncodings {
		text, ok := decodeBytes(raw, e.enc)
		if !ok {
			continue
		}
		decoded = true

		rows, err := readCSVRows(text)
		if err != nil {
			lastParseErr = err
			continue
		}
		if len(rows) == 0 {
			lastParseErr = fmt.Errorf("file is empty")
			continue
		}
		return buildCSVTable(rows), nil
	}

	if !decoded {
		return nil, fmt.Errorf("%w: no supported text encoding succeeded", ErrDecode)
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedStructure, lastParseErr)
}

// decodeBytes decodes raw through enc, reporting failure instead of
// substituting replacement runes. UTF-8 input is validated rather than
// transformed.
func decodeBytes(raw []byte, enc encoding.Encoding) (string, bool) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(raw) {
			return "", false
		}
		// Drop a BOM if present.
		return strings.TrimPrefix(string(raw), "\uFEFF"), true
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func readCSVRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// buildCSVTable decides between a single-row and a split two-row header,
// then assembles the Table.
func buildCSVTable(rows [][]string) *Table {
	if isSplitHeader(rows) {
		header := combineHeaderRows(rows[0], rows[1])
		data := dropEmptyRows(rows[2:])
		// Extend with positional placeholders when data rows are wider
		// than the synthesized header.
		for _, row := range data {
			for len(header) < len(row) {
				header = append(header, fmt.Sprintf("Column_%d", len(header)))
			}
		}
		return NewTable(header, data)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return NewTable(header, dropEmptyRows(rows[1:]))
}

// isSplitHeader detects headers spanning two rows: a plurality (>=3) of
// the first row's cells are blank or whitespace-only, and the second
// row's leading cells are all non-numeric strings (column names, not
// data).
func isSplitHeader(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	sample := rows
	if len(sample) > headerSampleRows {
		sample = sample[:headerSampleRows]
	}
	first, second := sample[0], sample[1]

	blanks := 0
	for _, cell := range first {
		if strings.TrimSpace(cell) == "" {
			blanks++
		}
	}
	if blanks < 3 {
		return false
	}

	checked := 0
	for _, cell := range second {
		if checked >= 10 {
			break
		}
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		checked++
		if looksNumeric(v) {
			return false
		}
	}
	return true
}

// looksNumeric reports whether a cell is a number once date/decimal
// punctuation is removed, which would mean the row is data rather than a
// header.
func looksNumeric(s string) bool {
	stripped := strings.NewReplacer(".", "", "-", "", "/", "").Replace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// combineHeaderRows synthesizes one header from a two-row split: the
// second row's value wins, the first row's value fills its blanks, and a
// positional placeholder covers cells blank in both.
func combineHeaderRows(first, second []string) []string {
	width := len(first)
	if len(second) > width {
		width = len(second)
	}
	header := make([]string, width)
	for i := 0; i < width; i++ {
		h1, h2 := "", ""
		if i < len(first) {
			h1 = strings.TrimSpace(first[i])
		}
		if i < len(second) {
			h2 = strings.TrimSpace(second[i])
		}
		switch {
		case h2 != "":
			header[i] = h2
		case h1 != "":
			header[i] = h1
		default:
			header[i] = fmt.Sprintf("Column_%d", i)
		}
	}
	return header
}

func dropEmptyRows(rows [][]string) [][]string {
	kept := rows[:0:0]
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}
	return kept
}
