package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arrematai/auditor_backend/models"
	"github.com/arrematai/auditor_backend/utils"
	"go.opentelemetry.io/otel/trace"
)

// FieldSample is the tuple the orchestrator hands over per audited field:
// where the value was seen in the UI and what the store says it should be.
type FieldSample struct {
	EntityType  models.EntityType `json:"entity_type" validate:"required"`
	EntityId    string            `json:"entity_id" validate:"required"`
	EntityLabel string            `json:"entity_label"`
	PageUrl     string            `json:"page_url"`
	Selector    string            `json:"selector"`
	FieldName   string            `json:"field_name" validate:"required"`
	DbValue     string            `json:"db_value"`
	UiText      string            `json:"ui_text"`

	// Optional orchestrator overrides.
	Severity *models.Severity `json:"severity,omitempty"`
	TraceId  string           `json:"trace_id,omitempty"`
}

type RunMetadata struct {
	Date            time.Time     `json:"date"`
	Environment     string        `json:"environment"`
	TenantId        string        `json:"tenant_id"`
	Duration        time.Duration `json:"duration"`
	QueriesExecuted int           `json:"queries_executed"`
	PagesChecked    int           `json:"pages_checked"`
}

type Summary struct {
	TotalFieldsChecked  int     `json:"total_fields_checked"`
	DivergencesFound    int     `json:"divergences_found"`
	CriticalDivergences int     `json:"critical_divergences"`
	ConsistencyRate     float64 `json:"consistency_rate"` // percentage, 0..100
}

// ReconciliationReport is the full audit output. Built incrementally by a
// ReportBuilder, finalized once, then rendered/serialized; never mutated
// afterwards.
type ReconciliationReport struct {
	Metadata        RunMetadata                        `json:"metadata"`
	Summary         Summary                            `json:"summary"`
	Divergences     []models.DivergenceRecord          `json:"divergences"`
	Integrity       *models.ReferentialIntegrityReport `json:"integrity,omitempty"`
	Recommendations []string                           `json:"recommendations"`
}

// ReportBuilder accumulates one audit run. Appends are mutex-guarded so the
// orchestrator may check pages concurrently; everything else about a check is
// a pure function of its sample.
type ReportBuilder struct {
	mu sync.Mutex

	tenantId    string
	environment string
	startedAt   time.Time

	fieldsChecked int
	pages         map[string]struct{}
	divergences   []models.DivergenceRecord
	integrity     *models.ReferentialIntegrityReport
	finalized     bool
}

func NewReportBuilder(tenantId string, environment string) *ReportBuilder {
	return &ReportBuilder{
		tenantId:    tenantId,
		environment: environment,
		startedAt:   time.Now().UTC(),
		pages:       map[string]struct{}{},
	}
}

// CheckField normalizes both sides of a sample, compares them, classifies any
// divergence and appends the record. Returns the created record, or nil when
// the sides agree within tolerance.
func (b *ReportBuilder) CheckField(ctx context.Context, sample FieldSample) (*models.DivergenceRecord, error) {
	if err := utils.GetValidator().Struct(sample); err != nil {
		return nil, fmt.Errorf("invalid field sample: %w", err)
	}

	diverges, delta := compareSample(sample)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return nil, fmt.Errorf("report already finalized")
	}
	b.fieldsChecked++
	if sample.PageUrl != "" {
		b.pages[sample.PageUrl] = struct{}{}
	}
	if !diverges {
		return nil, nil
	}

	cause := models.InferRootCause(sample.FieldName, sample.DbValue, sample.UiText)
	record := models.DivergenceRecord{
		ID:                   len(b.divergences) + 1,
		Severity:             severityFor(sample, cause),
		EntityType:           sample.EntityType,
		EntityId:             sample.EntityId,
		EntityLabel:          sample.EntityLabel,
		PageUrl:              sample.PageUrl,
		Selector:             sample.Selector,
		FieldName:            sample.FieldName,
		DbValue:              sample.DbValue,
		UiValue:              sample.UiText,
		Delta:                delta,
		RootCauseCode:        cause.Code,
		RootCauseDescription: cause.Description,
		Recommendation:       cause.Recommendation,
		TraceId:              traceIdFor(ctx, sample),
		Timestamp:            time.Now().UTC(),
	}
	b.divergences = append(b.divergences, record)
	return &record, nil
}

// AttachIntegrity adds the integrity battery output to the report being built.
func (b *ReportBuilder) AttachIntegrity(integrity *models.ReferentialIntegrityReport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.integrity = integrity
}

// Finalize freezes the run into a ReconciliationReport. The builder rejects
// further appends afterwards.
func (b *ReportBuilder) Finalize() *ReconciliationReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finalized = true

	queries := 0
	if b.integrity != nil {
		queries = b.integrity.QueriesExecuted
	}

	report := &ReconciliationReport{
		Metadata: RunMetadata{
			Date:            b.startedAt,
			Environment:     b.environment,
			TenantId:        b.tenantId,
			Duration:        time.Since(b.startedAt),
			QueriesExecuted: queries,
			PagesChecked:    len(b.pages),
		},
		Summary:     summarize(b.fieldsChecked, b.divergences),
		Divergences: append([]models.DivergenceRecord(nil), b.divergences...),
		Integrity:   b.integrity,
	}
	report.Recommendations = collectRecommendations(report)
	return report
}

func summarize(fieldsChecked int, divergences []models.DivergenceRecord) Summary {
	s := Summary{
		TotalFieldsChecked: fieldsChecked,
		DivergencesFound:   len(divergences),
		ConsistencyRate:    100,
	}
	for _, d := range divergences {
		if d.Severity == models.SeverityCritical {
			s.CriticalDivergences++
		}
	}
	if fieldsChecked > 0 {
		s.ConsistencyRate = (1 - float64(len(divergences))/float64(fieldsChecked)) * 100
	}
	return s
}

// compareSample decides whether the sample diverges and builds the
// human-facing delta text. Which comparison applies follows the field naming
// conventions, monetary before counter so fields matching both (valorTotal,
// totalValue) compare as money; unknown fields fall back to a canonical
// string comparison.
func compareSample(sample FieldSample) (bool, string) {
	switch {
	case models.IsStatusField(sample.FieldName):
		variants := models.StatusVariantsFor(sample.EntityType)
		if models.StatusMatches(variants, sample.DbValue, sample.UiText) {
			return false, ""
		}
		return true, fmt.Sprintf("backend status %q rendered as %q", sample.DbValue, sample.UiText)

	case models.IsMonetaryField(sample.FieldName):
		db := utils.NormalizeDecimal(sample.DbValue)
		ui := utils.NormalizeCurrencyText(sample.UiText)
		delta, diverges := models.CompareCurrencyValues(db, ui, sample.FieldName)
		if !diverges {
			return false, ""
		}
		return true, fmt.Sprintf("%s (%s)", delta.Formatted, delta.Percentage)

	case models.IsCounterField(sample.FieldName):
		stored, storedOk := counterValue(sample.DbValue)
		rendered, renderedOk := counterValue(sample.UiText)
		if storedOk && renderedOk {
			if !models.CompareCounterValues(stored, rendered) {
				return false, ""
			}
			return true, fmt.Sprintf("stored=%d rendered=%d (diff %d)", stored, rendered, abs(stored-rendered))
		}
		// An unparseable side (placeholder, broken rendering) must surface as
		// a text mismatch, not silently compare as zero.
		return compareText(sample)

	default:
		return compareText(sample)
	}
}

func compareText(sample FieldSample) (bool, string) {
	db := strings.ToLower(strings.TrimSpace(sample.DbValue))
	ui := strings.ToLower(strings.TrimSpace(sample.UiText))
	if db == ui {
		return false, ""
	}
	return true, fmt.Sprintf("db=%q ui=%q", sample.DbValue, sample.UiText)
}

// severityFor picks the default severity from the root cause; the
// orchestrator may override per sample. Money on a won lot is an invoice
// about to be wrong, so it escalates to CRITICAL.
func severityFor(sample FieldSample, cause models.RootCause) models.Severity {
	if sample.Severity != nil {
		return *sample.Severity
	}
	switch cause.Code {
	case models.RootCauseDataNotLoaded:
		return models.SeverityHigh
	case models.RootCauseStaleCache:
		if sample.EntityType == models.EntityTypeUserWin || strings.EqualFold(sample.FieldName, "finalAmount") {
			return models.SeverityCritical
		}
		return models.SeverityHigh
	case models.RootCauseSerializationMismatch, models.RootCauseStaleClientState:
		return models.SeverityMedium
	case models.RootCauseCounterNotRevalidated:
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

func traceIdFor(ctx context.Context, sample FieldSample) string {
	if sample.TraceId != "" {
		return sample.TraceId
	}
	if ctx == nil {
		return ""
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// collectRecommendations dedupes record recommendations and adds integrity
// follow-ups, preserving first-seen order.
func collectRecommendations(report *ReconciliationReport) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, d := range report.Divergences {
		add(d.Recommendation)
	}
	if ri := report.Integrity; ri != nil {
		if ri.PublishedWithoutLots > 0 {
			add("Unpublish or populate auctions that are live with zero lots.")
		}
		if ri.OpenLotsUnderDeadAuction > 0 {
			add("Cascade auction terminal states to their lots; open lots under closed auctions accept bids nobody can win.")
		}
		if ri.ActiveBidsOnClosedLots > 0 {
			add("Invalidate active bids when a lot is withdrawn, cancelled or closed.")
		}
		if len(ri.DesyncedCounters) > 0 {
			add("Rebuild denormalized counters from source records and add update triggers.")
		}
	}
	return out
}

// counterValue parses a rendered counter. Plain integers parse directly;
// counters rendered with pt-BR thousands separators ("1.234") go through the
// currency parser and must still be whole numbers.
func counterValue(s string) (int, bool) {
	t := strings.TrimSpace(s)
	if n, err := strconv.Atoi(t); err == nil {
		return n, true
	}
	d, ok := utils.ParseCurrencyText(t)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
