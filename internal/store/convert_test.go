package store

import (
	"testing"
	"time"
)

func TestToPgText(t *testing.T) {
	if v := ToPgText("  hello  "); !v.Valid || v.String != "hello" {
		t.Errorf("ToPgText(hello) = %+v", v)
	}
	if v := ToPgText("   "); v.Valid {
		t.Errorf("ToPgText(blank) should be NULL, got %+v", v)
	}
	if v := ToPgText(""); v.Valid {
		t.Errorf("ToPgText(empty) should be NULL, got %+v", v)
	}
}

func TestToPgDate(t *testing.T) {
	v := ToPgDate("2/15/2024")
	if !v.Valid {
		t.Fatal("ToPgDate(2/15/2024) should be valid")
	}
	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !v.Time.Equal(want) {
		t.Errorf("ToPgDate = %v, want %v", v.Time, want)
	}

	if v := ToPgDate("2024-02-15"); !v.Valid {
		t.Error("ToPgDate(ISO) should be valid")
	}
	if v := ToPgDate(""); v.Valid {
		t.Error("ToPgDate(empty) should be NULL")
	}
	if v := ToPgDate("not a date"); v.Valid {
		t.Error("ToPgDate(garbage) should be NULL")
	}
}

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"25", true},
		{"25.00", true},
		{"-12.34", true},
		{"$1,234.56", true},
		{"(15.00)", true},
		{"1e3", false},
		{"", false},
		{"n/a", false},
		{"12.34.56", false},
	}
	for _, tt := range tests {
		if v := ToPgNumeric(tt.in); v.Valid != tt.valid {
			t.Errorf("ToPgNumeric(%q).Valid = %v, want %v", tt.in, v.Valid, tt.valid)
		}
	}

	v := ToPgNumeric("(15.00)")
	f, err := v.Float64Value()
	if err != nil || !f.Valid {
		t.Fatalf("Float64Value() error = %v", err)
	}
	if f.Float64 != -15.0 {
		t.Errorf("ToPgNumeric((15.00)) = %v, want -15", f.Float64)
	}
}

func TestToPgInt4(t *testing.T) {
	if v := ToPgInt4("42"); !v.Valid || v.Int32 != 42 {
		t.Errorf("ToPgInt4(42) = %+v", v)
	}
	if v := ToPgInt4("-1"); !v.Valid || v.Int32 != -1 {
		t.Errorf("ToPgInt4(-1) = %+v", v)
	}
	if v := ToPgInt4(""); v.Valid {
		t.Error("ToPgInt4(empty) should be NULL")
	}
	if v := ToPgInt4("12.5"); v.Valid {
		t.Error("ToPgInt4(decimal) should be NULL")
	}
}
