package fileparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Failure classes. Callers branch on these with errors.Is; the wrapped
// message carries the human-readable cause.
var (
	// ErrUnsupportedFormat means the file extension is not one we parse.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDecode means no supported text encoding could decode the file.
	ErrDecode = errors.New("could not decode file")

	// ErrMalformedStructure means no tabular or record structure could be
	// recovered from the file contents.
	ErrMalformedStructure = errors.New("malformed file structure")
)

// Parse loads a file into a Table based on its extension.
// CSV files go through the encoding-fallback and multi-row-header path,
// spreadsheets through the format-appropriate reader, and XML through the
// repeating-element heuristic.
func Parse(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx":
		return parseXLSX(path)
	case ".xls":
		return parseXLS(path)
	case ".xml":
		return parseXML(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Columns parses a file and returns just its column names.
func Columns(path string) ([]string, error) {
	t, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}
