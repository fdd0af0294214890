package reports_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/arrematai/auditor_backend/models"
	"github.com/arrematai/auditor_backend/models/reports"
)

func sampleMonetaryDivergence() reports.FieldSample {
	return reports.FieldSample{
		EntityType:  models.EntityTypeLot,
		EntityId:    "101",
		EntityLabel: "Lote 12 — Apartamento Centro",
		PageUrl:     "https://leiloes.example.com/lotes/101",
		Selector:    "[data-testid=current-bid]",
		FieldName:   "currentBid",
		DbValue:     "500000",
		UiText:      "R$ 499.000,00",
	}
}

func TestCheckField_ConsistentSampleProducesNoRecord(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	s := sampleMonetaryDivergence()
	s.UiText = "R$ 500.000,00"
	record, err := b.CheckField(context.Background(), s)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record != nil {
		t.Fatalf("consistent sample must not create a divergence, got %+v", record)
	}

	report := b.Finalize()
	if report.Summary.TotalFieldsChecked != 1 || report.Summary.DivergencesFound != 0 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.ConsistencyRate != 100 {
		t.Fatalf("expected 100%% consistency, got %v", report.Summary.ConsistencyRate)
	}
}

func TestCheckField_MonetaryDivergence(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	record, err := b.CheckField(context.Background(), sampleMonetaryDivergence())
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record == nil {
		t.Fatalf("expected a divergence record")
	}
	if record.ID != 1 {
		t.Fatalf("expected sequential id 1, got %d", record.ID)
	}
	if record.RootCauseCode != models.RootCauseStaleCache {
		t.Fatalf("expected STALE_CACHE, got %s", record.RootCauseCode)
	}
	if record.Severity != models.SeverityHigh {
		t.Fatalf("expected HIGH severity default, got %s", record.Severity)
	}
	if record.DbValue != "500000" || record.UiValue != "R$ 499.000,00" {
		t.Fatalf("raw values must be preserved: %+v", record)
	}
	if !strings.Contains(record.Delta, "0.2%") {
		t.Fatalf("expected percentage in delta, got %s", record.Delta)
	}
}

func TestCheckField_SeverityOverrideAndEscalation(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")

	low := models.SeverityLow
	s := sampleMonetaryDivergence()
	s.Severity = &low
	record, err := b.CheckField(context.Background(), s)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record.Severity != models.SeverityLow {
		t.Fatalf("caller override must win, got %s", record.Severity)
	}

	win := reports.FieldSample{
		EntityType: models.EntityTypeUserWin,
		EntityId:   "7",
		FieldName:  "finalAmount",
		DbValue:    "150000",
		UiText:     "R$ 140.000,00",
	}
	record, err = b.CheckField(context.Background(), win)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record.Severity != models.SeverityCritical {
		t.Fatalf("money on a won lot escalates to CRITICAL, got %s", record.Severity)
	}
}

func TestCheckField_StatusAndCounterSamples(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")

	status := reports.FieldSample{
		EntityType: models.EntityTypeLot,
		EntityId:   "101",
		FieldName:  "status",
		DbValue:    "VENDIDO",
		UiText:     "Arrematado",
	}
	if record, err := b.CheckField(context.Background(), status); err != nil || record != nil {
		t.Fatalf("accepted synonym must not diverge (record=%v err=%v)", record, err)
	}

	status.UiText = "Encerrado"
	record, err := b.CheckField(context.Background(), status)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record == nil || record.RootCauseCode != models.RootCauseStaleClientState {
		t.Fatalf("expected STALE_CLIENT_STATE, got %+v", record)
	}

	counter := reports.FieldSample{
		EntityType: models.EntityTypeLot,
		EntityId:   "101",
		FieldName:  "bidsCount",
		DbValue:    "15",
		UiText:     "12",
	}
	record, err = b.CheckField(context.Background(), counter)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record == nil || record.RootCauseCode != models.RootCauseCounterNotRevalidated {
		t.Fatalf("expected COUNTER_NOT_REVALIDATED, got %+v", record)
	}
	if record.Delta != "stored=15 rendered=12 (diff 3)" {
		t.Fatalf("unexpected counter delta: %s", record.Delta)
	}
}

func TestCheckField_MonetaryWinsOverCounterConvention(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")

	// Field name matches both the monetary and counter conventions; the
	// amounts are equal once normalized, so no divergence.
	equal := reports.FieldSample{
		EntityType: models.EntityTypeAuction,
		EntityId:   "5",
		FieldName:  "totalValue",
		DbValue:    "1000",
		UiText:     "R$ 1.000,00",
	}
	if record, err := b.CheckField(context.Background(), equal); err != nil || record != nil {
		t.Fatalf("equal amounts on a monetary+counter field must not diverge (record=%+v err=%v)", record, err)
	}

	diverging := reports.FieldSample{
		EntityType: models.EntityTypeAuction,
		EntityId:   "5",
		FieldName:  "valorTotal",
		DbValue:    "1000",
		UiText:     "R$ 900,00",
	}
	record, err := b.CheckField(context.Background(), diverging)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record == nil || record.RootCauseCode != models.RootCauseStaleCache {
		t.Fatalf("expected a monetary divergence with STALE_CACHE, got %+v", record)
	}
	if !strings.Contains(record.Delta, "R$ 100,00") {
		t.Fatalf("expected a monetary delta, got %q", record.Delta)
	}
}

func TestCheckField_CounterRenderings(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")

	// Thousands separator in the rendered counter is formatting, not a finding.
	formatted := reports.FieldSample{
		EntityType: models.EntityTypeLot,
		EntityId:   "101",
		FieldName:  "bidsCount",
		DbValue:    "1234",
		UiText:     "1.234",
	}
	if record, err := b.CheckField(context.Background(), formatted); err != nil || record != nil {
		t.Fatalf("counter with thousands separator must not diverge (record=%+v err=%v)", record, err)
	}

	// A placeholder must not compare as zero against a stored count.
	missing := reports.FieldSample{
		EntityType: models.EntityTypeLot,
		EntityId:   "101",
		FieldName:  "bidsCount",
		DbValue:    "1234",
		UiText:     "—",
	}
	record, err := b.CheckField(context.Background(), missing)
	if err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	if record == nil || record.RootCauseCode != models.RootCauseDataNotLoaded {
		t.Fatalf("expected DATA_NOT_LOADED for a placeholder counter, got %+v", record)
	}
	if strings.Contains(record.Delta, "rendered=0") {
		t.Fatalf("placeholder must not be reported as zero: %q", record.Delta)
	}
}

func TestCheckField_RejectsInvalidSample(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	_, err := b.CheckField(context.Background(), reports.FieldSample{FieldName: "price"})
	if err == nil {
		t.Fatalf("sample without entity must be rejected")
	}
}

func TestReportBuilder_ConcurrentAppends(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.CheckField(context.Background(), sampleMonetaryDivergence()); err != nil {
				t.Errorf("CheckField: %v", err)
			}
		}()
	}
	wg.Wait()

	report := b.Finalize()
	if report.Summary.TotalFieldsChecked != 50 || report.Summary.DivergencesFound != 50 {
		t.Fatalf("unexpected summary after concurrent checks: %+v", report.Summary)
	}
	seen := map[int]bool{}
	for _, d := range report.Divergences {
		if seen[d.ID] {
			t.Fatalf("duplicate divergence id %d", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestFinalize_RejectsLateAppends(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	_ = b.Finalize()
	if _, err := b.CheckField(context.Background(), sampleMonetaryDivergence()); err == nil {
		t.Fatalf("finalized report must reject appends")
	}
}

func TestRenderMarkdown_AllConsistent(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "staging")
	s := sampleMonetaryDivergence()
	s.UiText = "R$ 500.000,00"
	if _, err := b.CheckField(context.Background(), s); err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	report := b.Finalize()

	doc := reports.RenderMarkdown(report)
	if !strings.Contains(doc, "No divergences found") {
		t.Fatalf("zero findings must render an explicit all-consistent statement:\n%s", doc)
	}
	if !strings.Contains(doc, "n/a — integrity battery not run") {
		t.Fatalf("missing integrity section placeholder:\n%s", doc)
	}
	if !strings.Contains(doc, "Tenant: tenant-1") || !strings.Contains(doc, "Environment: staging") {
		t.Fatalf("metadata missing from render:\n%s", doc)
	}
}

func TestRenderMarkdown_DivergenceFields(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	if _, err := b.CheckField(context.Background(), sampleMonetaryDivergence()); err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	b.AttachIntegrity(&models.ReferentialIntegrityReport{
		TenantId:             "tenant-1",
		PublishedWithoutLots: 2,
		DesyncedCounters: []models.DesyncedCounter{
			{EntityType: models.EntityTypeLot, EntityId: 101, FieldName: "bidsCount", StoredValue: 10, CalculatedValue: 12},
		},
	})
	report := b.Finalize()

	doc := reports.RenderMarkdown(report)
	for _, want := range []string{
		"currentBid",
		"`500000`",
		"`R$ 499.000,00`",
		models.RootCauseStaleCache,
		"🟠 HIGH",
		"| Published auctions without lots | 2 |",
		"| Lot | 101 | bidsCount | 10 | 12 |",
		"## Recommendations",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("rendered report missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "No divergences found") {
		t.Fatalf("report with findings must not claim consistency")
	}
}

func TestExportExcel(t *testing.T) {
	b := reports.NewReportBuilder("tenant-1", "test")
	if _, err := b.CheckField(context.Background(), sampleMonetaryDivergence()); err != nil {
		t.Fatalf("CheckField: %v", err)
	}
	report := b.Finalize()

	f, err := reports.ExportExcel(report)
	if err != nil {
		t.Fatalf("ExportExcel: %v", err)
	}
	got, err := f.GetCellValue("Divergences", "H2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "currentBid" {
		t.Fatalf("expected field name in workbook, got %q", got)
	}
}
