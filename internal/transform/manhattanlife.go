package transform

import (
	"fmt"
	"strings"

	"github.com/benefitsops/commission-processor/internal/fileparser"
)

const carrierManhattanLife = "Manhattan Life"

// feeRowMarker appears in the Policy column of statement rows that are
// agency fees rather than policy transactions. Those rows are split out
// of the commission sub-report into the adjustment sub-report.
const feeRowMarker = "FEES AND ADJUSTMENTS"

func init() {
	register(carrierManhattanLife, func(d Deps) Transformer {
		return &manhattanLife{deps: d}
	})
}

// manhattanLife transforms Manhattan Life statement files. Their
// commission statements interleave fee rows with policy transactions;
// their lapse reports arrive as a separate file with its own layout.
type manhattanLife struct {
	deps Deps
}

// Canonical output schemas, in template column order.
var (
	commissionColumns = []string{
		"PolicyNo", "PHFirst", "PHLast", "Status", "Issuer", "State",
		"ProductType", "PlanName", "SubmittedDate", "EffectiveDate", "TermDate",
		"PaySched", "PayCode", "WritingAgentID", "Premium", "CommPrem",
		"TranDate", "CommReceived", "PTD", "NoPayMon", "MemberCount", "Note",
	}
	chargebackColumns = []string{
		"PolicyNo", "Issuer", "CancelDate", "ProcessDate", "PolicyStatus", "Note",
	}
	adjustmentColumns = []string{
		"AgentID", "ProcessDate", "Description", "Issuer", "PolicyNo",
		"UnitPrice", "Quantity", "Total", "ApplytoNet", "ApplytoForm1099",
		"ApplytoAgentBalance", "Note",
	}
)

// Raw header spellings vary release to release; candidates are in
// preference order.
var (
	mlCommissionFields = []columnSpec{
		{"group_no", []string{"Group No.", "Bill Ctrl/", "Group No"}},
		{"policy", []string{"Policy"}},
		{"owner_name", []string{"Owner Name", "Owner"}},
		{"payment_date", []string{"Payment Date", "Payment"}},
		{"ptd", []string{"Paid To Date", "PTD", "Paid To"}},
		{"issue_date", []string{"Issue Date", "Issue"}},
		{"premium", []string{"Premium"}},
		{"commission", []string{"Commission"}},
		{"advance_repay", []string{"Advance Repay", "Advance"}},
		{"issue_state", []string{"Issue State", "Issue"}},
		{"plan_description", []string{"Plan Description", "Plan Desc"}},
		{"writing_agent", []string{"Writing Agent"}},
	}
	mlChargebackFields = []columnSpec{
		{"policy_number", []string{"Policy Number", "Policy No", "PolicyNo"}},
		{"paid_to_date", []string{"Paid To Date", "PTD"}},
		{"days_lapsed", []string{"# of Days Lapsed", "Days Lapsed"}},
	}
)

func (m *manhattanLife) Carrier() string { return carrierManhattanLife }

// SubReports detects the file's layout through the configured
// identifier columns (first file type with at least half its
// identifiers present wins). A lapse report yields only the chargeback
// sub-report. A commission file yields commission, plus adjustment when
// any row carries the fee marker in the Policy column.
func (m *manhattanLife) SubReports(t *fileparser.Table) []string {
	fileType, ok := m.deps.Config.DetectFileType(carrierManhattanLife, t.Columns)
	if !ok {
		return nil
	}

	switch fileType {
	case SubReportChargeback:
		return []string{SubReportChargeback}
	case SubReportCommission:
		reports := []string{SubReportCommission}
		if m.hasFeeRows(t, resolveColumns(t, mlCommissionFields)) {
			reports = append(reports, SubReportAdjustment)
		}
		return reports
	}
	return nil
}

func (m *manhattanLife) hasFeeRows(t *fileparser.Table, cols resolvedColumns) bool {
	if !cols.found("policy") {
		return false
	}
	for _, row := range t.Rows {
		if isFeeRow(cols.value(row, "policy")) {
			return true
		}
	}
	return false
}

func isFeeRow(policy string) bool {
	return strings.EqualFold(strings.TrimSpace(policy), feeRowMarker)
}

func (m *manhattanLife) Transform(t *fileparser.Table, subReport string) (*fileparser.Table, error) {
	switch subReport {
	case SubReportCommission:
		return m.transformCommission(t)
	case SubReportChargeback:
		return m.transformChargeback(t)
	case SubReportAdjustment:
		return m.transformAdjustment(t)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubReport, subReport)
	}
}

// transformCommission maps policy transaction rows onto the Policy And
// Transactions template. Fee rows are excluded; they belong to the
// adjustment sub-report.
func (m *manhattanLife) transformCommission(t *fileparser.Table) (*fileparser.Table, error) {
	cols := resolveColumns(t, mlCommissionFields)
	if err := cols.require(
		"group_no", "owner_name", "issue_state", "plan_description",
		"writing_agent", "premium", "commission", "advance_repay",
		"payment_date", "ptd", "issue_date",
	); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range t.Rows {
		if cols.found("policy") && isFeeRow(cols.value(row, "policy")) {
			continue
		}

		plan := cols.value(row, "plan_description")
		issueDate := normalizeDate(cols.value(row, "issue_date"))
		premium := cols.value(row, "premium")

		rows = append(rows, []string{
			cols.value(row, "group_no"),            // PolicyNo
			"",                                     // PHFirst
			cols.value(row, "owner_name"),          // PHLast
			"Active",                               // Status
			carrierManhattanLife,                   // Issuer
			cols.value(row, "issue_state"),         // State
			m.lookup("plan_to_product_type", plan), // ProductType
			m.lookup("plan_to_plan_name", plan),    // PlanName
			issueDate,                              // SubmittedDate
			issueDate,                              // EffectiveDate
			"",                                     // TermDate
			"Monthly",                              // PaySched
			"Default",                              // PayCode
			cols.value(row, "writing_agent"),       // WritingAgentID
			premium,                                // Premium
			premium,                                // CommPrem
			normalizeDate(cols.value(row, "payment_date")),                                 // TranDate
			chooseNonZero(cols.value(row, "commission"), cols.value(row, "advance_repay")), // CommReceived
			normalizeDate(cols.value(row, "ptd")),                                          // PTD
			"1",                                                                            // NoPayMon
			"",                                                                             // MemberCount
			plan,                                                                           // Note
		})
	}
	return fileparser.NewTable(commissionColumns, rows), nil
}

// transformChargeback maps a lapse report onto the Commission
// Chargebacks template.
func (m *manhattanLife) transformChargeback(t *fileparser.Table) (*fileparser.Table, error) {
	cols := resolveColumns(t, mlChargebackFields)
	if err := cols.require("policy_number", "paid_to_date"); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range t.Rows {
		ptd := normalizeDate(cols.value(row, "paid_to_date"))
		rows = append(rows, []string{
			cols.value(row, "policy_number"), // PolicyNo
			carrierManhattanLife,             // Issuer
			ptd,                              // CancelDate
			ptd,                              // ProcessDate
			"Chargeback",                     // PolicyStatus
			"",                               // Note
		})
	}
	return fileparser.NewTable(chargebackColumns, rows), nil
}

// transformAdjustment maps fee rows onto the adjustment template. The
// statement books fees as charges against the agency; the canonical
// adjustment is the agent-side credit, so amounts are sign-inverted.
func (m *manhattanLife) transformAdjustment(t *fileparser.Table) (*fileparser.Table, error) {
	cols := resolveColumns(t, mlCommissionFields)
	if err := cols.require("policy", "owner_name", "plan_description",
		"commission", "advance_repay", "payment_date"); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range t.Rows {
		if !isFeeRow(cols.value(row, "policy")) {
			continue
		}

		amount := invertSign(chooseNonZero(cols.value(row, "commission"), cols.value(row, "advance_repay")))
		rows = append(rows, []string{
			m.resolveAgent(cols.value(row, "owner_name")),  // AgentID
			normalizeDate(cols.value(row, "payment_date")), // ProcessDate
			cols.value(row, "plan_description"),            // Description
			carrierManhattanLife,                           // Issuer
			"",                                             // PolicyNo
			amount,                                         // UnitPrice
			"1",                                            // Quantity
			amount,                                         // Total
			"Y",                                            // ApplytoNet
			"N",                                            // ApplytoForm1099
			"Y",                                            // ApplytoAgentBalance
			"",                                             // Note
		})
	}
	return fileparser.NewTable(adjustmentColumns, rows), nil
}

// MissingMappings collects, for commission files, the plan descriptions
// that have no entry in the plan lookups. Each raw value appears once
// per lookup regardless of how many rows carry it.
func (m *manhattanLife) MissingMappings(t *fileparser.Table, subReport string) map[string][]string {
	missing := map[string][]string{}
	if subReport != SubReportCommission {
		return missing
	}

	cols := resolveColumns(t, mlCommissionFields)
	if !cols.found("plan_description") {
		return missing
	}

	seen := map[string]map[string]bool{}
	for _, row := range t.Rows {
		if cols.found("policy") && isFeeRow(cols.value(row, "policy")) {
			continue
		}
		raw := strings.TrimSpace(cols.value(row, "plan_description"))
		if raw == "" {
			continue
		}
		for _, lookup := range []string{"plan_to_product_type", "plan_to_plan_name"} {
			if _, ok := m.deps.Config.GetLookup(carrierManhattanLife, lookup, raw); ok {
				continue
			}
			if seen[lookup] == nil {
				seen[lookup] = map[string]bool{}
			}
			if seen[lookup][raw] {
				continue
			}
			seen[lookup][raw] = true
			missing[lookup] = append(missing[lookup], raw)
		}
	}
	return missing
}

func (m *manhattanLife) lookup(name, raw string) string {
	val, _ := m.deps.Config.GetLookup(carrierManhattanLife, name, strings.TrimSpace(raw))
	return val
}

func (m *manhattanLife) resolveAgent(name string) string {
	if m.deps.Agents == nil {
		return ""
	}
	return m.deps.Agents.Resolve(name)
}
