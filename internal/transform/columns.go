package transform

import (
	"fmt"
	"strings"

	"github.com/benefitsops/commission-processor/internal/fileparser"
)

// columnSpec names a logical field and the raw header spellings carriers
// have used for it, in preference order.
type columnSpec struct {
	key        string
	candidates []string
}

// resolvedColumn is the outcome of resolving one logical field. Index is
// a position, not a name, so the first occurrence wins when headers
// repeat. Index -1 means resolution fell through to the default
// candidate and that name does not exist; reading it is a hard error.
type resolvedColumn struct {
	index int
	name  string
}

type resolvedColumns map[string]resolvedColumn

// resolveColumns maps logical fields onto actual table columns. For each
// field it tries, in order: an exact (trimmed) name match for any
// candidate, then any column containing a candidate as a
// case-insensitive substring, then gives up and records the first
// candidate with index -1. The deliberate effect is best effort with a
// loud failure downstream: the defaulted name will not exist, and
// accessing it raises rather than silently yielding empties.
func resolveColumns(t *fileparser.Table, specs []columnSpec) resolvedColumns {
	trimmed := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		trimmed[i] = strings.TrimSpace(col)
	}

	out := make(resolvedColumns, len(specs))
	for _, spec := range specs {
		out[spec.key] = resolveOne(trimmed, spec)
	}
	return out
}

func resolveOne(columns []string, spec columnSpec) resolvedColumn {
	for _, cand := range spec.candidates {
		cand = strings.TrimSpace(cand)
		for i, col := range columns {
			if col == cand {
				return resolvedColumn{index: i, name: col}
			}
		}
	}
	for _, cand := range spec.candidates {
		lower := strings.ToLower(strings.TrimSpace(cand))
		for i, col := range columns {
			if strings.Contains(strings.ToLower(col), lower) {
				return resolvedColumn{index: i, name: col}
			}
		}
	}
	return resolvedColumn{index: -1, name: spec.candidates[0]}
}

// found reports whether a logical field resolved to a real column.
func (c resolvedColumns) found(key string) bool {
	return c[key].index >= 0
}

// require fails if any of the named fields did not resolve to a real
// column. Called before reading data so the defaulted-name case
// surfaces as a typed error naming the missing column.
func (c resolvedColumns) require(keys ...string) error {
	for _, key := range keys {
		if rc := c[key]; rc.index < 0 {
			return fmt.Errorf("column %q not found in file", rc.name)
		}
	}
	return nil
}

// value reads a logical field from a row. Rows narrower than the header
// read as empty, matching the table's rectangular fit.
func (c resolvedColumns) value(row []string, key string) string {
	rc := c[key]
	if rc.index < 0 || rc.index >= len(row) {
		return ""
	}
	return row[rc.index]
}
