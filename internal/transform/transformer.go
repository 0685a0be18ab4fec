// Package transform holds the carrier-specific rule sets that turn a
// parsed statement table into the canonical commission, chargeback and
// adjustment tables. Each carrier is one Transformer implementation
// selected by name; adding a carrier means adding a variant, not
// branching inside shared code.
package transform

import (
	"errors"

	"github.com/benefitsops/commission-processor/internal/carrierconfig"
	"github.com/benefitsops/commission-processor/internal/fileparser"
)

// Sub-report names shared by all carriers.
const (
	SubReportCommission = "commission"
	SubReportChargeback = "chargeback"
	SubReportAdjustment = "adjustment"
)

// ErrUnknownSubReport means a transform was requested for a sub-report
// the carrier's transformer does not implement.
var ErrUnknownSubReport = errors.New("unknown sub-report type")

// Transformer is the per-carrier capability set. Transform is a pure
// function of (table, carrier config, sub-report): re-running after a
// lookup edit is deterministic given the updated lookup table.
type Transformer interface {
	// Carrier returns the carrier name this transformer serves.
	Carrier() string

	// SubReports reports which sub-reports a parsed table yields, based
	// on structural signals in the data (marker rows, column layout).
	SubReports(t *fileparser.Table) []string

	// Transform produces the canonical table for one sub-report.
	Transform(t *fileparser.Table, subReport string) (*fileparser.Table, error)

	// MissingMappings reports, per lookup table, the raw values in the
	// input that have no lookup entry. Advisory only: missing lookups
	// never fail a transform, they just leave canonical fields empty.
	MissingMappings(t *fileparser.Table, subReport string) map[string][]string
}

// Deps carries the injected collaborators every transformer may need.
type Deps struct {
	Config *carrierconfig.Store
	Agents *AgentDirectory
}

type factory func(Deps) Transformer

var registry = map[string]factory{}

func register(carrier string, f factory) {
	registry[carrier] = f
}

// New returns the transformer for a carrier, or false when the carrier
// has none configured. Absence is not an error: the caller falls back
// to manual column mapping.
func New(carrier string, deps Deps) (Transformer, bool) {
	f, ok := registry[carrier]
	if !ok {
		return nil, false
	}
	return f(deps), true
}

// Carriers lists the carrier names with a registered transformer.
func Carriers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
