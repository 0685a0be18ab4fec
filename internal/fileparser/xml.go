package fileparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// XML handling is a best-effort heuristic, not a schema mapping. Each
// child of the root element is treated as one record; one level of
// nesting is flattened into parent_child field names. When the document
// has no repeating children, a single flat record is built from every
// text-bearing leaf.

type xmlElement struct {
	tag      string
	text     string
	children []*xmlElement
}

func parseXML(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStructure, err)
	}
	root, err := decodeXMLTree(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStructure, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformedStructure)
	}

	if t := recordsFromRepeatingChildren(root); t != nil {
		return t, nil
	}
	if t := flatRecordFromLeaves(root); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: no records found in XML document", ErrMalformedStructure)
}

// decodeXMLTree builds a generic element tree from the document.
func decodeXMLTree(raw []byte) (*xmlElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var root *xmlElement
	var stack []*xmlElement

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{tag: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element %q", stack[len(stack)-1].tag)
	}
	return root, nil
}

// recordsFromRepeatingChildren treats each child of the root as one
// record, flattening one level of nesting as parent_child. Returns nil
// when no child yields a non-empty record.
func recordsFromRepeatingChildren(root *xmlElement) *Table {
	var columns []string
	colIndex := make(map[string]int)
	var records []map[string]string

	for _, child := range root.children {
		record := make(map[string]string)
		for _, el := range child.children {
			if len(el.children) > 0 {
				for _, sub := range el.children {
					key := el.tag + "_" + sub.tag
					record[key] = strings.TrimSpace(sub.text)
					if _, ok := colIndex[key]; !ok {
						colIndex[key] = len(columns)
						columns = append(columns, key)
					}
				}
			} else {
				record[el.tag] = strings.TrimSpace(el.text)
				if _, ok := colIndex[el.tag]; !ok {
					colIndex[el.tag] = len(columns)
					columns = append(columns, el.tag)
				}
			}
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(columns))
		for key, val := range rec {
			row[colIndex[key]] = val
		}
		rows[i] = row
	}
	return NewTable(columns, rows)
}

// flatRecordFromLeaves builds a single record from every text-bearing
// leaf element in document order. Returns nil when nothing has text.
func flatRecordFromLeaves(root *xmlElement) *Table {
	var columns []string
	var values []string
	seen := make(map[string]bool)

	var walk func(el *xmlElement)
	walk = func(el *xmlElement) {
		if text := strings.TrimSpace(el.text); text != "" && !seen[el.tag] {
			seen[el.tag] = true
			columns = append(columns, el.tag)
			values = append(values, text)
		}
		for _, child := range el.children {
			walk(child)
		}
	}
	walk(root)

	if len(columns) == 0 {
		return nil
	}
	return NewTable(columns, [][]string{values})
}
