package transform

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"
)

// AgentDirectory resolves free-text agent names from statement rows to
// stable agent identifiers (NPNs) via an external reference file. The
// file is read once per process and cached read-only for the process
// lifetime; it is never refreshed within a run.
//
// Only a small fixed set of name shapes is tried ("First Last",
// "Last, First", "Last, First Middle" with the middle dropped). Inputs
// outside those shapes resolve to empty rather than erroring; that
// graceful degradation is intended.
type AgentDirectory struct {
	path string

	once   sync.Once
	byName map[string]string
	err    error
}

// NewAgentDirectory points at a reference CSV with NPN, First Name and
// Last Name columns. The file is not touched until the first Resolve.
func NewAgentDirectory(path string) *AgentDirectory {
	return &AgentDirectory{path: path}
}

// Resolve returns the identifier for an agent name, or "" when the name
// cannot be matched under any tried shape (including when no reference
// file is configured).
func (d *AgentDirectory) Resolve(name string) string {
	d.once.Do(d.load)
	if d.err != nil || len(d.byName) == 0 {
		return ""
	}
	for _, key := range nameKeys(name) {
		if id, ok := d.byName[key]; ok {
			return id
		}
	}
	return ""
}

// Err reports the load failure, if any, for logging. Resolution itself
// degrades to empty results rather than propagating it.
func (d *AgentDirectory) Err() error {
	d.once.Do(d.load)
	return d.err
}

func (d *AgentDirectory) load() {
	d.byName = map[string]string{}
	if d.path == "" {
		return
	}
	f, err := os.Open(d.path)
	if err != nil {
		d.err = fmt.Errorf("open agent directory: %w", err)
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		d.err = fmt.Errorf("read agent directory: %w", err)
		return
	}
	if len(rows) < 2 {
		return
	}

	npn, first, last := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "npn":
			npn = i
		case "first name", "first":
			first = i
		case "last name", "last":
			last = i
		}
	}
	if npn < 0 || first < 0 || last < 0 {
		d.err = fmt.Errorf("agent directory missing NPN/First Name/Last Name columns")
		return
	}

	for _, row := range rows[1:] {
		if npn >= len(row) || first >= len(row) || last >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[npn])
		key := normalizeName(row[first] + " " + row[last])
		if id != "" && key != "" {
			d.byName[key] = id
		}
	}
}

// nameKeys produces the candidate lookup keys for an input name, in the
// order they are tried:
//
//	"First Last"              -> "first last"
//	"Last, First"             -> "first last"
//	"Last, First Middle"      -> "first last" (middle truncated)
func nameKeys(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var keys []string
	add := func(k string) {
		if k == "" {
			return
		}
		for _, existing := range keys {
			if existing == k {
				return
			}
		}
		keys = append(keys, k)
	}

	add(normalizeName(name))

	if before, after, ok := strings.Cut(name, ","); ok {
		last := strings.TrimSpace(before)
		rest := strings.Fields(after)
		if len(rest) > 0 {
			// "Last, First" and "Last, First Middle": only the first
			// token after the comma is the given name.
			add(normalizeName(rest[0] + " " + last))
		}
	}

	return keys
}

// normalizeName lower-cases and collapses interior whitespace.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
