package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeCurrencyText_BrazilianFormatting(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
	}{
		{"R$ 500.000,00", 500000.00},
		{"R$ 1.234,56", 1234.56},
		{"R$ 500.000", 500000},
		{"R$ 0,01", 0.01},
		{"R$ -2.500,10", -2500.10},
		{"US$ 99,90", 99.90},
		{"€ 1.000,00", 1000},
		{"1234.56", 1234.56},
		{"500000", 500000},
	}
	for _, tc := range cases {
		if got := NormalizeCurrencyText(tc.in); got != tc.expected {
			t.Fatalf("NormalizeCurrencyText(%q) expected %v, got %v", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeCurrencyText_InvalidInputNeverFails(t *testing.T) {
	cases := []string{"", " ", "-", "—", "N/A", "n/a", "null", "undefined", "...", "Encerrado", "R$", "abc123abc,xy"}
	for _, in := range cases {
		got := NormalizeCurrencyText(in)
		if in == "abc123abc,xy" {
			// digits survive stripping; anything unparseable beyond that is 0
			continue
		}
		if got != 0 {
			t.Fatalf("NormalizeCurrencyText(%q) expected 0, got %v", in, got)
		}
	}
}

func TestNormalizeDecimal(t *testing.T) {
	cases := []struct {
		in       any
		expected float64
	}{
		{nil, 0},
		{"", 0},
		{"500000.005", 500000.01},
		{"499000", 499000},
		{12.345, 12.35},
		{int64(42), 42},
		{decimal.NewFromFloat(10.129), 10.13},
		{struct{}{}, 0},
	}
	for _, tc := range cases {
		if got := NormalizeDecimal(tc.in); got != tc.expected {
			t.Fatalf("NormalizeDecimal(%v) expected %v, got %v", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeDecimal_Idempotent(t *testing.T) {
	for _, v := range []float64{0, 0.01, 123.45, -9999.99, 500000} {
		once := NormalizeDecimal(v)
		if twice := NormalizeDecimal(once); twice != once {
			t.Fatalf("NormalizeDecimal not idempotent for %v: %v then %v", v, once, twice)
		}
	}
}

func TestHasResidualDecimals(t *testing.T) {
	cases := []struct {
		in       any
		expected bool
	}{
		{500000.00, false},
		{500000.00003, true},
		{500000, false},
		{"10.12", false},
		{"10.123", true},
		{"10.120", false},
		{nil, false},
		{"not-a-number", false},
	}
	for _, tc := range cases {
		if got := HasResidualDecimals(tc.in); got != tc.expected {
			t.Fatalf("HasResidualDecimals(%v) expected %v, got %v", tc.in, tc.expected, got)
		}
	}
}

func TestParseCurrencyText_KeepsResidualDigits(t *testing.T) {
	d, ok := ParseCurrencyText("R$ 500.000,0000003")
	if !ok {
		t.Fatalf("expected parseable value")
	}
	if !HasResidualDecimals(d) {
		t.Fatalf("expected residual decimals in %s", d.String())
	}
}

func TestFormatMoneyBRL(t *testing.T) {
	cases := []struct {
		in       float64
		expected string
	}{
		{0, "R$ 0,00"},
		{1000, "R$ 1.000,00"},
		{1234.5, "R$ 1.234,50"},
		{500000, "R$ 500.000,00"},
		{-99.9, "-R$ 99,90"},
	}
	for _, tc := range cases {
		if got := FormatMoneyBRL(tc.in); got != tc.expected {
			t.Fatalf("FormatMoneyBRL(%v) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}
