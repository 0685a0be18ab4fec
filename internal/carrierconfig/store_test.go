package carrierconfig

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestNewStore_SeedsDefaultCarrier(t *testing.T) {
	s := newTestStore(t)

	cfg, ok := s.Config("Manhattan Life")
	if !ok {
		t.Fatal("seeded carrier missing")
	}
	if len(cfg.FileTypes) != 2 {
		t.Fatalf("file types = %d, want 2", len(cfg.FileTypes))
	}
	if cfg.FileTypes[0].Name != "commission" {
		t.Errorf("first file type = %q, want commission", cfg.FileTypes[0].Name)
	}

	got, ok := s.GetLookup("Manhattan Life", "plan_to_product_type", "LUMP SUM CANCER")
	if !ok || got != "Critical Illness" {
		t.Errorf("GetLookup(LUMP SUM CANCER) = %q, %v; want Critical Illness", got, ok)
	}
}

func TestDetectFileType_AtThreshold(t *testing.T) {
	s := newTestStore(t)

	// Commission has 4 identifier columns; 2 present is exactly half.
	ft, ok := s.DetectFileType("Manhattan Life", []string{"Policy", "Owner Name", "Unrelated"})
	if !ok || ft != "commission" {
		t.Errorf("DetectFileType() = %q, %v; want commission", ft, ok)
	}
}

func TestDetectFileType_BelowThreshold(t *testing.T) {
	s := newTestStore(t)

	// 1 of 4 commission identifiers, 1 of 3 chargeback identifiers.
	ft, ok := s.DetectFileType("Manhattan Life", []string{"Policy", "Something", "Else"})
	if ok {
		t.Errorf("DetectFileType() = %q, want no detection", ft)
	}
}

func TestDetectFileType_FirstConfiguredWins(t *testing.T) {
	s := newTestStore(t)

	// Columns satisfying both layouts resolve to the first configured
	// entry.
	cols := []string{"Record Type", "Group No.", "Policy", "Owner Name",
		"Policy Owner Name", "Policy Number", "# of Days Lapsed"}
	ft, ok := s.DetectFileType("Manhattan Life", cols)
	if !ok || ft != "commission" {
		t.Errorf("DetectFileType() = %q, %v; want commission (first configured)", ft, ok)
	}
}

func TestDetectFileType_Chargeback(t *testing.T) {
	s := newTestStore(t)

	ft, ok := s.DetectFileType("Manhattan Life", []string{"Policy Owner Name", "Policy Number", "# of Days Lapsed"})
	if !ok || ft != "chargeback" {
		t.Errorf("DetectFileType() = %q, %v; want chargeback", ft, ok)
	}
}

func TestDetectFileType_UnconfiguredCarrier(t *testing.T) {
	s := newTestStore(t)

	ft, ok := s.DetectFileType("Unknown Carrier", []string{"Policy"})
	if ok {
		t.Errorf("DetectFileType() = %q, want not detected", ft)
	}
}

func TestTemplate(t *testing.T) {
	s := newTestStore(t)

	tpl, ok := s.Template("Manhattan Life", "chargeback")
	if !ok || tpl != "Commission Chargebacks Template (10).csv" {
		t.Errorf("Template() = %q, %v", tpl, ok)
	}
	if _, ok := s.Template("Manhattan Life", "unknown"); ok {
		t.Error("Template() should miss for unknown file type")
	}
}

func TestUpdateLookup_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpdateLookup("Manhattan Life", "plan_to_product_type", "NEW PLAN", "Dental with Vision"); err != nil {
		t.Fatalf("UpdateLookup() error = %v", err)
	}

	got, ok := s.GetLookup("Manhattan Life", "plan_to_product_type", "NEW PLAN")
	if !ok || got != "Dental with Vision" {
		t.Errorf("GetLookup() = %q, %v", got, ok)
	}
}

func TestUpdateLookup_CreatesCarrierAndTable(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpdateLookup("Acme Health", "plan_to_product_type", "PLAN A", "Accident"); err != nil {
		t.Fatalf("UpdateLookup() error = %v", err)
	}

	got, ok := s.GetLookup("Acme Health", "plan_to_product_type", "PLAN A")
	if !ok || got != "Accident" {
		t.Errorf("GetLookup() = %q, %v", got, ok)
	}
}

func TestDeleteLookupEntry(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteLookupEntry("Manhattan Life", "plan_to_product_type", "LUMP SUM CANCER"); err != nil {
		t.Fatalf("DeleteLookupEntry() error = %v", err)
	}
	if _, ok := s.GetLookup("Manhattan Life", "plan_to_product_type", "LUMP SUM CANCER"); ok {
		t.Error("entry should be gone")
	}

	// Deleting again, or deleting the unknown, is a no-op.
	if err := s.DeleteLookupEntry("Manhattan Life", "plan_to_product_type", "LUMP SUM CANCER"); err != nil {
		t.Errorf("repeat delete error = %v", err)
	}
	if err := s.DeleteLookupEntry("Nobody", "nothing", "nope"); err != nil {
		t.Errorf("unknown delete error = %v", err)
	}
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.UpdateLookup("Manhattan Life", "plan_to_plan_name", "CUSTOM PLAN", "Custom"); err != nil {
		t.Fatalf("UpdateLookup() error = %v", err)
	}

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() reload error = %v", err)
	}
	got, ok := reloaded.GetLookup("Manhattan Life", "plan_to_plan_name", "CUSTOM PLAN")
	if !ok || got != "Custom" {
		t.Errorf("GetLookup() after reload = %q, %v", got, ok)
	}

	// The seeded config survives the round trip too.
	ft, ok := reloaded.DetectFileType("Manhattan Life", []string{"Record Type", "Group No.", "Policy", "Owner Name"})
	if !ok || ft != "commission" {
		t.Errorf("DetectFileType() after reload = %q, %v", ft, ok)
	}
}
