package transform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/benefitsops/commission-processor/internal/carrierconfig"
	"github.com/benefitsops/commission-processor/internal/fileparser"
	"github.com/shopspring/decimal"
)

var commissionHeader = []string{
	"Group No.", "Owner Name", "Payment Date", "Paid To Date", "Issue Date",
	"Premium", "Commission", "Advance Repay", "Issue State",
	"Plan Description", "Writing Agent",
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	cfg, err := carrierconfig.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("carrierconfig.NewStore() error = %v", err)
	}
	return Deps{Config: cfg, Agents: NewAgentDirectory("")}
}

func testDepsWithAgents(t *testing.T) Deps {
	t.Helper()
	deps := testDeps(t)
	path := filepath.Join(t.TempDir(), "agents.csv")
	data := "NPN,First Name,Last Name\n12345,John,Smith\n67890,Jane,Doe\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write agents file: %v", err)
	}
	deps.Agents = NewAgentDirectory(path)
	return deps
}

func newTransformer(t *testing.T, deps Deps) Transformer {
	t.Helper()
	tr, ok := New("Manhattan Life", deps)
	if !ok {
		t.Fatal("no transformer registered for Manhattan Life")
	}
	return tr
}

func cell(t *testing.T, table *fileparser.Table, row int, column string) string {
	t.Helper()
	idx := table.ColumnIndex(column)
	if idx < 0 {
		t.Fatalf("column %q missing from %v", column, table.Columns)
	}
	return table.Cell(row, idx)
}

func assertAmount(t *testing.T, got, want string) {
	t.Helper()
	g, err := decimal.NewFromString(got)
	if err != nil {
		t.Fatalf("amount %q is not a decimal: %v", got, err)
	}
	w, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected amount %q: %v", want, err)
	}
	if !g.Equal(w) {
		t.Errorf("amount = %s, want %s", got, want)
	}
}

func TestSubReports_CommissionOnly(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(commissionHeader, [][]string{
		{"G1", "SMITH, JOHN", "01/15/2024", "03/01/2024", "02/15/2024",
			"100.00", "25.00", "0.00", "TX", "LUMP SUM CANCER", "AG123"},
	})

	reports := tr.SubReports(table)
	if len(reports) != 1 || reports[0] != SubReportCommission {
		t.Errorf("SubReports() = %v, want [commission]", reports)
	}
}

func TestSubReports_ChargebackLayout(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(
		[]string{"Policy Owner Name", "Policy Number", "# of Days Lapsed", "Paid To Date"},
		[][]string{{"JOHN SMITH", "P100", "45", "03/01/2024"}},
	)

	reports := tr.SubReports(table)
	if len(reports) != 1 || reports[0] != SubReportChargeback {
		t.Errorf("SubReports() = %v, want [chargeback]", reports)
	}
}

func TestSubReports_FeeRowsAddAdjustment(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	header := append([]string{"Policy"}, commissionHeader...)
	table := fileparser.NewTable(header, [][]string{
		{"P001", "G1", "SMITH, JOHN", "01/15/2024", "03/01/2024", "02/15/2024",
			"100.00", "25.00", "0.00", "TX", "LUMP SUM CANCER", "AG123"},
		{"FEES AND ADJUSTMENTS", "", "Smith, John", "01/31/2024", "", "",
			"", "-15.00", "0.00", "", "MONTHLY SERVICE FEE", ""},
	})

	reports := tr.SubReports(table)
	if len(reports) != 2 || reports[0] != SubReportCommission || reports[1] != SubReportAdjustment {
		t.Errorf("SubReports() = %v, want [commission adjustment]", reports)
	}
}

func TestSubReports_UnknownLayout(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable([]string{"Alpha", "Beta"}, [][]string{{"1", "2"}})

	if reports := tr.SubReports(table); len(reports) != 0 {
		t.Errorf("SubReports() = %v, want none", reports)
	}
}

func TestTransformCommission(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(commissionHeader, [][]string{
		{"G1", "SMITH, JOHN", "01/15/2024", "03/01/2024", "02/15/2024",
			"100.00", "25.00", "0.00", "TX", "LUMP SUM CANCER", "AG123"},
		{"G2", "DOE, JANE", "01/15/2024", "", "2024-02-15",
			"50.00", "0.00", "12.34", "FL", "UNKNOWN PLAN XYZ", "AG124"},
	})

	out, err := tr.Transform(table, SubReportCommission)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", out.RowCount())
	}

	if got := cell(t, out, 0, "PolicyNo"); got != "G1" {
		t.Errorf("PolicyNo = %q, want G1", got)
	}
	if got := cell(t, out, 0, "PHLast"); got != "SMITH, JOHN" {
		t.Errorf("PHLast = %q", got)
	}
	if got := cell(t, out, 0, "Status"); got != "Active" {
		t.Errorf("Status = %q, want Active", got)
	}
	if got := cell(t, out, 0, "Issuer"); got != "Manhattan Life" {
		t.Errorf("Issuer = %q, want Manhattan Life", got)
	}
	if got := cell(t, out, 0, "ProductType"); got != "Critical Illness" {
		t.Errorf("ProductType = %q, want Critical Illness", got)
	}
	if got := cell(t, out, 0, "PlanName"); got != "Cancer, Heart Attack, Stroke" {
		t.Errorf("PlanName = %q, want Cancer, Heart Attack, Stroke", got)
	}
	if got := cell(t, out, 0, "SubmittedDate"); got != "2/15/2024" {
		t.Errorf("SubmittedDate = %q, want 2/15/2024", got)
	}
	if got := cell(t, out, 0, "EffectiveDate"); got != "2/15/2024" {
		t.Errorf("EffectiveDate = %q, want 2/15/2024", got)
	}
	if got := cell(t, out, 0, "PaySched"); got != "Monthly" {
		t.Errorf("PaySched = %q, want Monthly", got)
	}
	if got := cell(t, out, 0, "PayCode"); got != "Default" {
		t.Errorf("PayCode = %q, want Default", got)
	}
	if got := cell(t, out, 0, "WritingAgentID"); got != "AG123" {
		t.Errorf("WritingAgentID = %q, want AG123", got)
	}
	assertAmount(t, cell(t, out, 0, "CommReceived"), "25.00")
	if got := cell(t, out, 0, "TranDate"); got != "1/15/2024" {
		t.Errorf("TranDate = %q, want 1/15/2024", got)
	}
	if got := cell(t, out, 0, "PTD"); got != "3/1/2024" {
		t.Errorf("PTD = %q, want 3/1/2024", got)
	}
	if got := cell(t, out, 0, "NoPayMon"); got != "1" {
		t.Errorf("NoPayMon = %q, want 1", got)
	}
	if got := cell(t, out, 0, "Note"); got != "LUMP SUM CANCER" {
		t.Errorf("Note = %q", got)
	}

	// Zero commission falls back to the advance repay amount; unmapped
	// plans leave the lookup-derived fields empty.
	assertAmount(t, cell(t, out, 1, "CommReceived"), "12.34")
	if got := cell(t, out, 1, "ProductType"); got != "" {
		t.Errorf("unmapped ProductType = %q, want empty", got)
	}
	if got := cell(t, out, 1, "PlanName"); got != "" {
		t.Errorf("unmapped PlanName = %q, want empty", got)
	}
	if got := cell(t, out, 1, "SubmittedDate"); got != "2/15/2024" {
		t.Errorf("ISO SubmittedDate = %q, want 2/15/2024", got)
	}
	if got := cell(t, out, 1, "PTD"); got != "" {
		t.Errorf("blank PTD = %q, want empty", got)
	}
}

func TestTransformCommission_ExcludesFeeRows(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	header := append([]string{"Policy"}, commissionHeader...)
	table := fileparser.NewTable(header, [][]string{
		{"P001", "G1", "SMITH, JOHN", "01/15/2024", "03/01/2024", "02/15/2024",
			"100.00", "25.00", "0.00", "TX", "LUMP SUM CANCER", "AG123"},
		{"fees and adjustments", "", "Smith, John", "01/31/2024", "", "",
			"", "-15.00", "0.00", "", "MONTHLY SERVICE FEE", ""},
	})

	out, err := tr.Transform(table, SubReportCommission)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out.RowCount() != 1 {
		t.Fatalf("rows = %d, want 1 (fee row excluded)", out.RowCount())
	}
	if got := cell(t, out, 0, "PolicyNo"); got != "G1" {
		t.Errorf("PolicyNo = %q, want G1", got)
	}
}

func TestTransformAdjustment(t *testing.T) {
	tr := newTransformer(t, testDepsWithAgents(t))
	header := append([]string{"Policy"}, commissionHeader...)
	table := fileparser.NewTable(header, [][]string{
		{"P001", "G1", "SMITH, JOHN", "01/15/2024", "03/01/2024", "02/15/2024",
			"100.00", "25.00", "0.00", "TX", "LUMP SUM CANCER", "AG123"},
		{"FEES AND ADJUSTMENTS", "", "Smith, John", "01/31/2024", "", "",
			"", "-15.00", "0.00", "", "MONTHLY SERVICE FEE", ""},
	})

	out, err := tr.Transform(table, SubReportAdjustment)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out.RowCount() != 1 {
		t.Fatalf("rows = %d, want 1 (only the fee row)", out.RowCount())
	}

	if got := cell(t, out, 0, "AgentID"); got != "12345" {
		t.Errorf("AgentID = %q, want 12345", got)
	}
	if got := cell(t, out, 0, "ProcessDate"); got != "1/31/2024" {
		t.Errorf("ProcessDate = %q, want 1/31/2024", got)
	}
	if got := cell(t, out, 0, "Description"); got != "MONTHLY SERVICE FEE" {
		t.Errorf("Description = %q", got)
	}
	// The statement books the fee as a charge; the canonical row is the
	// inverted credit.
	assertAmount(t, cell(t, out, 0, "UnitPrice"), "15.00")
	assertAmount(t, cell(t, out, 0, "Total"), "15.00")
	if got := cell(t, out, 0, "Quantity"); got != "1" {
		t.Errorf("Quantity = %q, want 1", got)
	}
	if got := cell(t, out, 0, "ApplytoNet"); got != "Y" {
		t.Errorf("ApplytoNet = %q, want Y", got)
	}
	if got := cell(t, out, 0, "ApplytoForm1099"); got != "N" {
		t.Errorf("ApplytoForm1099 = %q, want N", got)
	}
	if got := cell(t, out, 0, "ApplytoAgentBalance"); got != "Y" {
		t.Errorf("ApplytoAgentBalance = %q, want Y", got)
	}
}

func TestTransformAdjustment_UnresolvableAgent(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	header := append([]string{"Policy"}, commissionHeader...)
	table := fileparser.NewTable(header, [][]string{
		{"FEES AND ADJUSTMENTS", "", "Nobody Known", "01/31/2024", "", "",
			"", "-15.00", "0.00", "", "FEE", ""},
	})

	out, err := tr.Transform(table, SubReportAdjustment)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got := cell(t, out, 0, "AgentID"); got != "" {
		t.Errorf("AgentID = %q, want empty for unknown agent", got)
	}
}

func TestTransformChargeback(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(
		[]string{"Policy Owner Name", "Policy Number", "# of Days Lapsed", "Paid To Date"},
		[][]string{{"JOHN SMITH", "P100", "45", "03/01/2024"}},
	)

	out, err := tr.Transform(table, SubReportChargeback)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out.RowCount() != 1 {
		t.Fatalf("rows = %d, want 1", out.RowCount())
	}
	if got := cell(t, out, 0, "PolicyNo"); got != "P100" {
		t.Errorf("PolicyNo = %q, want P100", got)
	}
	if got := cell(t, out, 0, "Issuer"); got != "Manhattan Life" {
		t.Errorf("Issuer = %q", got)
	}
	if got := cell(t, out, 0, "CancelDate"); got != "3/1/2024" {
		t.Errorf("CancelDate = %q, want 3/1/2024", got)
	}
	if got := cell(t, out, 0, "ProcessDate"); got != "3/1/2024" {
		t.Errorf("ProcessDate = %q, want 3/1/2024", got)
	}
	if got := cell(t, out, 0, "PolicyStatus"); got != "Chargeback" {
		t.Errorf("PolicyStatus = %q, want Chargeback", got)
	}
}

func TestTransform_UnknownSubReport(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(commissionHeader, nil)

	_, err := tr.Transform(table, "refund")
	if !errors.Is(err, ErrUnknownSubReport) {
		t.Fatalf("Transform() error = %v, want ErrUnknownSubReport", err)
	}
}

func TestTransformCommission_MissingColumn(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	// No Writing Agent column anywhere.
	table := fileparser.NewTable(
		[]string{"Group No.", "Owner Name", "Payment Date", "Paid To Date",
			"Issue Date", "Premium", "Commission", "Advance Repay",
			"Issue State", "Plan Description"},
		[][]string{{"G1", "X", "01/15/2024", "", "", "1", "1", "0", "TX", "P"}},
	)

	_, err := tr.Transform(table, SubReportCommission)
	if err == nil {
		t.Fatal("Transform() expected error for missing column")
	}
	if want := `column "Writing Agent" not found in file`; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestMissingMappings(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	header := append([]string{"Policy"}, commissionHeader...)
	table := fileparser.NewTable(header, [][]string{
		{"P001", "G1", "A", "01/15/2024", "", "", "1", "1", "0", "TX", "LUMP SUM CANCER", "AG1"},
		{"P002", "G1", "B", "01/15/2024", "", "", "1", "1", "0", "TX", "UNKNOWN PLAN XYZ", "AG1"},
		{"P003", "G1", "C", "01/15/2024", "", "", "1", "1", "0", "TX", "UNKNOWN PLAN XYZ", "AG1"},
		{"FEES AND ADJUSTMENTS", "", "D", "01/31/2024", "", "", "", "-1", "0", "", "FEE PLAN", ""},
		{"P004", "G1", "E", "01/15/2024", "", "", "1", "1", "0", "TX", "", "AG1"},
	})

	missing := tr.MissingMappings(table, SubReportCommission)

	// Mapped plans, fee rows and blanks are not reported; repeats appear
	// once.
	for _, lookup := range []string{"plan_to_product_type", "plan_to_plan_name"} {
		got := missing[lookup]
		if len(got) != 1 || got[0] != "UNKNOWN PLAN XYZ" {
			t.Errorf("missing[%s] = %v, want [UNKNOWN PLAN XYZ]", lookup, got)
		}
	}
}

func TestMissingMappings_NonCommissionEmpty(t *testing.T) {
	tr := newTransformer(t, testDeps(t))
	table := fileparser.NewTable(
		[]string{"Policy Owner Name", "Policy Number", "# of Days Lapsed", "Paid To Date"},
		[][]string{{"X", "P1", "10", "03/01/2024"}},
	)

	if missing := tr.MissingMappings(table, SubReportChargeback); len(missing) != 0 {
		t.Errorf("MissingMappings(chargeback) = %v, want empty", missing)
	}
}

func TestCarriers_IncludesManhattanLife(t *testing.T) {
	found := false
	for _, c := range Carriers() {
		if c == "Manhattan Life" {
			found = true
		}
	}
	if !found {
		t.Errorf("Carriers() = %v, missing Manhattan Life", Carriers())
	}
}

func TestNew_UnknownCarrier(t *testing.T) {
	if _, ok := New("No Such Carrier", testDeps(t)); ok {
		t.Error("New() should miss for unknown carrier")
	}
}
