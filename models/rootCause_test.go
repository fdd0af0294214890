package models_test

import (
	"testing"

	"github.com/arrematai/auditor_backend/models"
)

func TestInferRootCause(t *testing.T) {
	cases := []struct {
		name      string
		fieldName string
		dbValue   string
		uiValue   string
		expected  string
	}{
		// missing value wins over the monetary rule: a component that never
		// loaded is a different bug class than a stale cache
		{"empty ui on monetary field", "price", "500000", "", models.RootCauseDataNotLoaded},
		{"dash placeholder", "price", "500000", "—", models.RootCauseDataNotLoaded},
		{"na placeholder", "bidsCount", "15", "N/A", models.RootCauseDataNotLoaded},
		{"residual decimals", "price", "500000", "R$ 500.000,0000003", models.RootCauseSerializationMismatch},
		{"residual decimals plain", "currentBid", "1234.5", "1234.56789", models.RootCauseSerializationMismatch},
		{"monetary divergence", "price", "500000", "R$ 499.000,00", models.RootCauseStaleCache},
		{"monetary divergence pt field", "valorLance", "1500", "R$ 1.200,00", models.RootCauseStaleCache},
		{"status divergence", "status", "ABERTO_PARA_LANCES", "Encerrado", models.RootCauseStaleClientState},
		{"counter divergence", "bidsCount", "15", "12", models.RootCauseCounterNotRevalidated},
		{"counter total field", "totalLots", "8", "5", models.RootCauseCounterNotRevalidated},
		{"no pattern", "description", "Apartamento 42", "Apartamento 43", models.RootCauseUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.InferRootCause(tc.fieldName, tc.dbValue, tc.uiValue)
			if got.Code != tc.expected {
				t.Fatalf("InferRootCause(%q, %q, %q) expected %s, got %s", tc.fieldName, tc.dbValue, tc.uiValue, tc.expected, got.Code)
			}
			if got.Description == "" || got.Recommendation == "" {
				t.Fatalf("root cause %s must carry description and recommendation", got.Code)
			}
		})
	}
}

func TestInferRootCause_MonetaryEqualValuesFallThrough(t *testing.T) {
	// same canonical amount on both sides: not stale cache, nothing matches
	got := models.InferRootCause("price", "500000", "R$ 500.000,00")
	if got.Code != models.RootCauseUnknown {
		t.Fatalf("expected UNKNOWN for equal monetary values, got %s", got.Code)
	}
}

func TestFieldNamingConventions(t *testing.T) {
	if !models.IsMonetaryField("currentBid") || !models.IsMonetaryField("finalAmount") || !models.IsMonetaryField("valorLance") {
		t.Fatalf("monetary convention too narrow")
	}
	if models.IsMonetaryField("bidsCount") {
		t.Fatalf("bidsCount is a counter, not money")
	}
	if !models.IsCounterField("bidsCount") || !models.IsCounterField("totalLots") {
		t.Fatalf("counter convention too narrow")
	}
	if !models.IsStatusField("status") || !models.IsStatusField("situacaoLote") {
		t.Fatalf("status convention too narrow")
	}
}
