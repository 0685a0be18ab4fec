package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted: parsed
// years more than this many years in the future are pushed back a
// century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// parseDate tries the permissive layout lists, 4-digit years first.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDate renders a raw date cell as month/day/year with no zero
// padding. Blank or unparseable inputs become the empty string, never an
// error.
func normalizeDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// parseAmount parses a monetary cell permissively: currency symbols and
// thousands separators are stripped, accounting parentheses mean
// negative, and anything non-numeric is zero.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// chooseNonZero implements conditional numeric selection: the primary
// value when non-zero, otherwise the secondary. The result is the
// canonical decimal string.
func chooseNonZero(primary, secondary string) string {
	p := parseAmount(primary)
	if !p.IsZero() {
		return p.String()
	}
	return parseAmount(secondary).String()
}

// invertSign flips a monetary value crossing from a charge semantic to a
// credit semantic.
func invertSign(s string) string {
	return parseAmount(s).Neg().String()
}
