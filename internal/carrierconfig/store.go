// Package carrierconfig persists declarative per-carrier metadata:
// which sub-reports a carrier's files break down into, which export
// template each sub-report feeds, and the lookup tables that translate
// raw statement labels into canonical ones.
package carrierconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const configsFile = "carrier_configs.json"

// detectThreshold is the minimum fraction of a sub-report's identifier
// columns that must be present for the sub-report to be detected.
const detectThreshold = 0.5

// FileType describes one sub-report of a carrier's statements.
// FileTypes is an ordered slice, not a map: detection returns the first
// adequate match, so carriers with overlapping identifier columns must
// list the more specific entry first.
type FileType struct {
	Name              string   `json:"name"`
	Template          string   `json:"template"`
	IdentifierColumns []string `json:"identifier_columns"`
	Description       string   `json:"description,omitempty"`
}

// Config is everything the pipeline knows about one carrier beyond its
// signature.
type Config struct {
	FileTypes []FileType                   `json:"file_types"`
	Lookups   map[string]map[string]string `json:"lookups"`

	// Rules is reserved for future declarative transformation rules.
	Rules []json.RawMessage `json:"rules"`
}

// Store owns the on-disk configs document. Every mutation rewrites the
// whole file immediately; there is no batching and no transaction, the
// last writer wins.
type Store struct {
	path    string
	configs map[string]*Config
}

// NewStore loads the config document under dataDir, seeding the built-in
// carrier defaults when no document exists yet.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{path: filepath.Join(dataDir, configsFile)}
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.configs = defaultConfigs()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read carrier configs: %w", err)
	}
	if err := json.Unmarshal(raw, &s.configs); err != nil {
		return nil, fmt.Errorf("parse carrier configs: %w", err)
	}
	return s, nil
}

// Config returns the configuration for a carrier, or false when the
// carrier is unconfigured (not an error; callers fall back to manual
// mapping).
func (s *Store) Config(carrier string) (*Config, bool) {
	cfg, ok := s.configs[carrier]
	return cfg, ok
}

// Carriers lists all configured carrier names.
func (s *Store) Carriers() []string {
	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFileType picks the sub-report a column list belongs to: the
// first configured entry whose identifier columns are at least half
// present. First adequate match wins; there is no best-fit ranking.
func (s *Store) DetectFileType(carrier string, columns []string) (string, bool) {
	cfg, ok := s.configs[carrier]
	if !ok {
		return "", false
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[strings.TrimSpace(col)] = true
	}

	for _, ft := range cfg.FileTypes {
		if len(ft.IdentifierColumns) == 0 {
			continue
		}
		matches := 0
		for _, id := range ft.IdentifierColumns {
			if present[id] {
				matches++
			}
		}
		if float64(matches) >= float64(len(ft.IdentifierColumns))*detectThreshold {
			return ft.Name, true
		}
	}
	return "", false
}

// Template returns the export template name configured for a carrier's
// sub-report.
func (s *Store) Template(carrier, fileType string) (string, bool) {
	cfg, ok := s.configs[carrier]
	if !ok {
		return "", false
	}
	for _, ft := range cfg.FileTypes {
		if ft.Name == fileType {
			return ft.Template, true
		}
	}
	return "", false
}

// GetLookup resolves key through a carrier's named lookup table.
func (s *Store) GetLookup(carrier, lookup, key string) (string, bool) {
	cfg, ok := s.configs[carrier]
	if !ok {
		return "", false
	}
	table, ok := cfg.Lookups[lookup]
	if !ok {
		return "", false
	}
	val, ok := table[key]
	return val, ok
}

// Lookups returns all lookup tables for a carrier.
func (s *Store) Lookups(carrier string) map[string]map[string]string {
	cfg, ok := s.configs[carrier]
	if !ok {
		return map[string]map[string]string{}
	}
	return cfg.Lookups
}

// UpdateLookup sets one entry in a carrier's lookup table, creating the
// carrier and the table as needed, and persists immediately.
func (s *Store) UpdateLookup(carrier, lookup, key, value string) error {
	cfg, ok := s.configs[carrier]
	if !ok {
		cfg = &Config{Lookups: map[string]map[string]string{}}
		s.configs[carrier] = cfg
	}
	if cfg.Lookups == nil {
		cfg.Lookups = map[string]map[string]string{}
	}
	if cfg.Lookups[lookup] == nil {
		cfg.Lookups[lookup] = map[string]string{}
	}
	cfg.Lookups[lookup][key] = value
	return s.save()
}

// DeleteLookupEntry removes one entry and persists. Removing an entry
// that does not exist is a no-op.
func (s *Store) DeleteLookupEntry(carrier, lookup, key string) error {
	cfg, ok := s.configs[carrier]
	if !ok {
		return nil
	}
	table, ok := cfg.Lookups[lookup]
	if !ok {
		return nil
	}
	if _, ok := table[key]; !ok {
		return nil
	}
	delete(table, key)
	return s.save()
}

// Save persists the current document. Exposed so callers seeding configs
// at install time can force a write.
func (s *Store) Save() error {
	return s.save()
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.configs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode carrier configs: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write carrier configs: %w", err)
	}
	return nil
}
