package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency symbols stripped before parsing. Longest first so "US$" wins over "$".
var currencySymbols = []string{"US$", "R$", "U$", "€", "$"}

// Placeholder renderings the UI uses while a value is missing or still loading.
var placeholderTexts = map[string]struct{}{
	"":          {},
	"-":         {},
	"—":         {},
	"–":         {},
	"n/a":       {},
	"n.a.":      {},
	"null":      {},
	"undefined": {},
	"...":       {},
}

var thousandsOnlyPattern = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// IsPlaceholderText reports whether a UI text is one of the known "value not
// rendered" placeholders (trimmed, case-insensitive).
func IsPlaceholderText(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	_, ok := placeholderTexts[t]
	return ok
}

// ParseCurrencyText cleans a UI-rendered currency string (pt-BR formatting:
// "." thousands, "," decimal mark) and parses it without rounding.
// ok=false when the text carries no parseable number.
func ParseCurrencyText(text string) (decimal.Decimal, bool) {
	t := strings.TrimSpace(text)
	if IsPlaceholderText(t) {
		return decimal.Zero, false
	}
	for _, sym := range currencySymbols {
		t = strings.ReplaceAll(t, sym, "")
	}
	t = strings.TrimSpace(t)

	if strings.Contains(t, ",") {
		// Brazilian rendering: drop thousands dots, comma becomes the point.
		t = strings.ReplaceAll(t, ".", "")
		t = strings.Replace(t, ",", ".", 1)
	} else if thousandsOnlyPattern.MatchString(strings.TrimSpace(stripNonNumeric(t))) {
		// "R$ 500.000": dots are thousands separators, no decimal part rendered.
		t = strings.ReplaceAll(t, ".", "")
	}

	t = stripNonNumeric(t)
	d, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Strips any remaining non-numeric characters except digits, "." and "-".
func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCurrencyText collapses a UI currency string to a comparable float
// rounded to 2 places. Empty, placeholder or unparseable input yields 0; this
// function never fails, a broken rendering is a finding, not a crash.
func NormalizeCurrencyText(text string) float64 {
	d, ok := ParseCurrencyText(text)
	if !ok {
		return 0
	}
	f, _ := d.Round(2).Float64()
	return f
}

// NormalizeDecimal accepts whatever shape the store hands back for a monetary
// column (decimal.Decimal, float, int, numeric string, Stringer) and collapses
// it to a float rounded to 2 places. nil yields 0.
func NormalizeDecimal(value any) float64 {
	d, ok := toDecimal(value)
	if !ok {
		return 0
	}
	f, _ := d.Round(2).Float64()
	return f
}

// HasResidualDecimals reports whether value carries more than 2 fractional
// digits, the signature of a float artifact leaking through serialization.
func HasResidualDecimals(value any) bool {
	d, ok := toDecimal(value)
	if !ok {
		return false
	}
	return !d.Equal(d.Round(2))
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case decimal.NullDecimal:
		if !v.Valid {
			return decimal.Zero, false
		}
		return v.Decimal, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case fmt.Stringer:
		d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// FormatMoneyBRL renders a canonical float the way the marketplace UI renders
// money ("R$ 1.234,56"), used for human-facing deltas in the report.
func FormatMoneyBRL(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
