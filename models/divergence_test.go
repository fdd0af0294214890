package models_test

import (
	"testing"

	"github.com/arrematai/auditor_backend/models"
)

func TestCompareCurrencyValues_WithinTolerance(t *testing.T) {
	if delta, diverges := models.CompareCurrencyValues(500000, 500000.005, "price"); diverges {
		t.Fatalf("0.005 difference is float noise, got divergence %+v", delta)
	}
	if _, diverges := models.CompareCurrencyValues(100, 100, "price"); diverges {
		t.Fatalf("equal values must not diverge")
	}
}

func TestCompareCurrencyValues_Divergence(t *testing.T) {
	delta, diverges := models.CompareCurrencyValues(500000, 499000, "price")
	if !diverges {
		t.Fatalf("expected divergence")
	}
	if delta.Absolute != 1000 {
		t.Fatalf("expected absolute delta 1000, got %v", delta.Absolute)
	}
	if delta.Percentage != "0.2%" {
		t.Fatalf("expected percentage 0.2%%, got %s", delta.Percentage)
	}
	if delta.Formatted != "R$ 1.000,00" {
		t.Fatalf("expected formatted delta R$ 1.000,00, got %s", delta.Formatted)
	}
}

func TestCompareCurrencyValues_ZeroDbValueIsUnbounded(t *testing.T) {
	delta, diverges := models.CompareCurrencyValues(0, 100, "price")
	if !diverges {
		t.Fatalf("expected divergence")
	}
	if delta.Percentage != "∞%" {
		t.Fatalf("expected unbounded percentage, got %s", delta.Percentage)
	}
}

func TestCompareCounterValues(t *testing.T) {
	if models.CompareCounterValues(10, 10) {
		t.Fatalf("equal counters must not diverge")
	}
	if !models.CompareCounterValues(10, 12) {
		t.Fatalf("counters are exact, 10 vs 12 must diverge")
	}
	if models.CompareCounterValues(0, 0) {
		t.Fatalf("zero children on both sides is not a mismatch")
	}
}
