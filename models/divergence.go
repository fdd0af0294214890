package models

import (
	"fmt"
	"math"
	"time"

	"github.com/arrematai/auditor_backend/utils"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// DivergenceRecord is one detected UI/DB mismatch. Immutable once appended to
// a report; DbValue/UiValue keep the raw pre-normalization text so a reviewer
// sees exactly what the page showed.
type DivergenceRecord struct {
	ID                   int        `json:"id"`
	Severity             Severity   `json:"severity"`
	EntityType           EntityType `json:"entity_type"`
	EntityId             string     `json:"entity_id"`
	EntityLabel          string     `json:"entity_label"`
	PageUrl              string     `json:"page_url"`
	Selector             string     `json:"selector"`
	FieldName            string     `json:"field_name"`
	DbValue              string     `json:"db_value"`
	UiValue              string     `json:"ui_value"`
	Delta                string     `json:"delta"`
	RootCauseCode        string     `json:"root_cause_code"`
	RootCauseDescription string     `json:"root_cause_description"`
	Recommendation       string     `json:"recommendation"`
	TraceId              string     `json:"trace_id,omitempty"`
	Timestamp            time.Time  `json:"timestamp"`
}

// DesyncedCounter is a denormalized count column whose stored value no longer
// matches a live recomputation. Produced only by the integrity battery.
type DesyncedCounter struct {
	EntityType      EntityType `json:"entity_type"`
	EntityId        int        `json:"entity_id"`
	FieldName       string     `json:"field_name"`
	StoredValue     int        `json:"stored_value"`
	CalculatedValue int        `json:"calculated_value"`
}

// ReferentialIntegrityReport aggregates the structural checks of one run.
type ReferentialIntegrityReport struct {
	TenantId                 string            `json:"tenant_id"`
	CorrelationId            string            `json:"correlation_id"`
	PublishedWithoutLots     int               `json:"published_without_lots"`
	OpenLotsUnderDeadAuction int               `json:"open_lots_under_dead_auction"`
	ActiveBidsOnClosedLots   int               `json:"active_bids_on_closed_lots"`
	DesyncedCounters         []DesyncedCounter `json:"desynced_counters"`
	QueriesExecuted          int               `json:"queries_executed"`
	CheckedAt                time.Time         `json:"checked_at"`
}

func (r *ReferentialIntegrityReport) AnomalyCount() int {
	if r == nil {
		return 0
	}
	return r.PublishedWithoutLots + r.OpenLotsUnderDeadAuction + r.ActiveBidsOnClosedLots + len(r.DesyncedCounters)
}

// MonetaryTolerance: differences below one cent are float noise, not findings.
const MonetaryTolerance = 0.01

// MoneyDelta describes how far apart two canonical monetary values are.
type MoneyDelta struct {
	FieldName  string  `json:"field_name"`
	Absolute   float64 `json:"absolute"`
	Formatted  string  `json:"formatted"`
	Percentage string  `json:"percentage"`
}

// CompareCurrencyValues compares two canonical monetary values. Returns
// (nil, false) when they agree within tolerance. The percentage is relative
// to the DB value (the store is the authority) and reported as "∞%" when
// the DB value is zero but the UI shows money.
func CompareCurrencyValues(dbValue float64, uiValue float64, fieldName string) (*MoneyDelta, bool) {
	diff := math.Abs(dbValue - uiValue)
	if diff < MonetaryTolerance {
		return nil, false
	}
	delta := &MoneyDelta{
		FieldName: fieldName,
		Absolute:  diff,
		Formatted: utils.FormatMoneyBRL(diff),
	}
	if dbValue == 0 {
		delta.Percentage = "∞%"
	} else {
		delta.Percentage = fmt.Sprintf("%.1f%%", diff/math.Abs(dbValue)*100)
	}
	return delta, true
}

// CompareCounterValues: counters are exact, no tolerance.
func CompareCounterValues(storedValue int, calculatedValue int) bool {
	return storedValue != calculatedValue
}
