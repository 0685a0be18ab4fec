// Package recognition persists per-carrier column signatures and
// filename patterns, and answers which known carrier a freshly parsed
// table most resembles.
package recognition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const signaturesFile = "carrier_signatures.json"

// fuzzyMatchThreshold is the minimum column-set overlap
// (|intersection| / max(|A|,|B|)) for a fuzzy carrier match.
const fuzzyMatchThreshold = 0.8

// Signature is what the store remembers about one carrier's files.
type Signature struct {
	// ColumnSignature is the normalized fingerprint: column names
	// lower-cased, trimmed, sorted and pipe-joined.
	ColumnSignature string `json:"column_signature"`

	// Columns is the raw column list from the most recent confirmation.
	Columns []string `json:"columns"`

	// FilenamePatterns are substrings extracted from confirmed filenames,
	// matched case-insensitively against future uploads.
	FilenamePatterns []string `json:"filename_patterns"`

	// FileCount counts confirmed recognition events for this carrier.
	FileCount int `json:"file_count"`
}

// Store owns the on-disk signatures document. It is the sole writer;
// every mutation rewrites the whole file (last writer wins, no locking).
type Store struct {
	path       string
	signatures map[string]*Signature
}

// NewStore loads (or initializes) the signature document under dataDir.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		path:       filepath.Join(dataDir, signaturesFile),
		signatures: make(map[string]*Signature),
	}
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signatures: %w", err)
	}
	if err := json.Unmarshal(raw, &s.signatures); err != nil {
		return nil, fmt.Errorf("parse signatures: %w", err)
	}
	return s, nil
}

// Recognize picks the known carrier a table most resembles, trying in
// order: exact column signature, filename substring pattern, fuzzy
// column overlap at the 0.8 threshold. First match wins; no match means
// the caller must ask a human.
func (s *Store) Recognize(columns []string, filename string) (string, bool) {
	sig := ColumnSignature(columns)
	for _, carrier := range s.Carriers() {
		if s.signatures[carrier].ColumnSignature == sig {
			return carrier, true
		}
	}

	lower := strings.ToLower(filename)
	for _, carrier := range s.Carriers() {
		for _, pattern := range s.signatures[carrier].FilenamePatterns {
			if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
				return carrier, true
			}
		}
	}

	current := columnSet(columns)
	for _, carrier := range s.Carriers() {
		stored := columnSet(s.signatures[carrier].Columns)
		if len(stored) == 0 || len(current) == 0 {
			continue
		}
		if overlap(stored, current) >= fuzzyMatchThreshold {
			return carrier, true
		}
	}

	return "", false
}

// Register stores a human-confirmed carrier for a file as ground truth,
// replacing any previous signature, and persists immediately. Safe to
// call repeatedly for the same file.
func (s *Store) Register(carrier string, columns []string, filename string) error {
	sig, ok := s.signatures[carrier]
	if !ok {
		sig = &Signature{}
		s.signatures[carrier] = sig
	}
	sig.ColumnSignature = ColumnSignature(columns)
	sig.Columns = append([]string(nil), columns...)
	sig.FileCount++

	if pattern := extractFilenamePattern(filename); pattern != "" {
		exists := false
		for _, p := range sig.FilenamePatterns {
			if p == pattern {
				exists = true
				break
			}
		}
		if !exists {
			sig.FilenamePatterns = append(sig.FilenamePatterns, pattern)
		}
	}

	return s.save()
}

// Carriers returns all registered carrier names, sorted for
// deterministic recognition order.
func (s *Store) Carriers() []string {
	names := make([]string, 0, len(s.signatures))
	for name := range s.signatures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the stored signature for a carrier.
func (s *Store) Info(carrier string) (*Signature, bool) {
	sig, ok := s.signatures[carrier]
	return sig, ok
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.signatures, "", "  ")
	if err != nil {
		return fmt.Errorf("encode signatures: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write signatures: %w", err)
	}
	return nil
}

// ColumnSignature builds the normalized, order-independent fingerprint
// of a column list.
func ColumnSignature(columns []string) string {
	normalized := make([]string, len(columns))
	for i, col := range columns {
		normalized[i] = strings.ToLower(strings.TrimSpace(col))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "|")
}

func columnSet(columns []string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, col := range columns {
		set[col] = true
	}
	return set
}

// overlap is |intersection| / max(|a|, |b|).
func overlap(a, b map[string]bool) float64 {
	shared := 0
	for col := range a {
		if b[col] {
			shared++
		}
	}
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	return float64(shared) / float64(max)
}

// Date substrings stripped from filenames when extracting a reusable
// pattern: YYYY-MM-DD, YYYY_MM_DD, MM-DD-YYYY, MM_DD_YYYY.
var (
	isoDateRe = regexp.MustCompile(`\d{4}[-_]\d{2}[-_]\d{2}`)
	usDateRe  = regexp.MustCompile(`\d{2}[-_]\d{2}[-_]\d{4}`)
	extRe     = regexp.MustCompile(`(?i)\.(csv|xlsx?|xml)$`)
)

// extractFilenamePattern derives a date-and-extension-free substring of
// a confirmed filename for future recognition. May be empty when the
// filename was nothing but a date.
func extractFilenamePattern(filename string) string {
	pattern := isoDateRe.ReplaceAllString(filename, "")
	pattern = usDateRe.ReplaceAllString(pattern, "")
	pattern = extRe.ReplaceAllString(pattern, "")
	return strings.Trim(pattern, "_- ")
}
