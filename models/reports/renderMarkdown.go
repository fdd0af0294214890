package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/arrematai/auditor_backend/models"
)

var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
}

var severityMarkers = map[models.Severity]string{
	models.SeverityCritical: "🔴",
	models.SeverityHigh:     "🟠",
	models.SeverityMedium:   "🟡",
	models.SeverityLow:      "🔵",
}

// RenderMarkdown renders a finalized report as a human-readable document.
// Pure function: no I/O, input untouched.
func RenderMarkdown(report *ReconciliationReport) string {
	var b strings.Builder

	b.WriteString("# Data Reconciliation Report\n\n")

	b.WriteString("## Run\n\n")
	fmt.Fprintf(&b, "- Date: %s\n", orNA(report.Metadata.Date.Format(time.RFC3339)))
	fmt.Fprintf(&b, "- Environment: %s\n", orNA(report.Metadata.Environment))
	fmt.Fprintf(&b, "- Tenant: %s\n", orNA(report.Metadata.TenantId))
	fmt.Fprintf(&b, "- Duration: %s\n", orNA(durationText(report.Metadata.Duration)))
	fmt.Fprintf(&b, "- Pages checked: %d\n", report.Metadata.PagesChecked)
	fmt.Fprintf(&b, "- Queries executed: %d\n\n", report.Metadata.QueriesExecuted)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Fields checked: %d\n", report.Summary.TotalFieldsChecked)
	fmt.Fprintf(&b, "- Divergences found: %d\n", report.Summary.DivergencesFound)
	fmt.Fprintf(&b, "- Critical divergences: %d\n", report.Summary.CriticalDivergences)
	fmt.Fprintf(&b, "- Consistency rate: %.1f%%\n\n", report.Summary.ConsistencyRate)

	b.WriteString("## Divergences\n\n")
	if len(report.Divergences) == 0 {
		b.WriteString("✅ No divergences found — all audited fields are consistent between UI and database.\n\n")
	} else {
		for _, sev := range severityOrder {
			group := filterBySeverity(report.Divergences, sev)
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s %s (%d)\n\n", severityMarkers[sev], sev, len(group))
			for _, d := range group {
				fmt.Fprintf(&b, "#### #%d · %s · %s\n\n", d.ID, d.EntityType, d.FieldName)
				fmt.Fprintf(&b, "- Entity: %s (%s)\n", orNA(d.EntityLabel), orNA(d.EntityId))
				fmt.Fprintf(&b, "- Page: %s\n", orNA(d.PageUrl))
				fmt.Fprintf(&b, "- Selector: %s\n", orNA(d.Selector))
				fmt.Fprintf(&b, "- DB value: `%s`\n", orNA(d.DbValue))
				fmt.Fprintf(&b, "- UI value: `%s`\n", orNA(d.UiValue))
				fmt.Fprintf(&b, "- Delta: %s\n", orNA(d.Delta))
				fmt.Fprintf(&b, "- Root cause: `%s` — %s\n", d.RootCauseCode, d.RootCauseDescription)
				fmt.Fprintf(&b, "- Recommendation: %s\n", d.Recommendation)
				if d.TraceId != "" {
					fmt.Fprintf(&b, "- Trace: %s\n", d.TraceId)
				}
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("## Referential Integrity\n\n")
	if ri := report.Integrity; ri != nil {
		b.WriteString("| Check | Findings |\n|---|---|\n")
		fmt.Fprintf(&b, "| Published auctions without lots | %d |\n", ri.PublishedWithoutLots)
		fmt.Fprintf(&b, "| Open lots under closed/cancelled auctions | %d |\n", ri.OpenLotsUnderDeadAuction)
		fmt.Fprintf(&b, "| Active bids on withdrawn/cancelled/closed lots | %d |\n", ri.ActiveBidsOnClosedLots)
		fmt.Fprintf(&b, "| Desynced counters | %d |\n\n", len(ri.DesyncedCounters))
		if ri.AnomalyCount() == 0 {
			b.WriteString("✅ No structural anomalies found.\n\n")
		}
		if len(ri.DesyncedCounters) > 0 {
			b.WriteString("### Desynced counters\n\n")
			b.WriteString("| Entity | ID | Field | Stored | Calculated |\n|---|---|---|---|---|\n")
			for _, c := range ri.DesyncedCounters {
				fmt.Fprintf(&b, "| %s | %d | %s | %d | %d |\n", c.EntityType, c.EntityId, c.FieldName, c.StoredValue, c.CalculatedValue)
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("n/a — integrity battery not run.\n\n")
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, rec := range report.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func filterBySeverity(records []models.DivergenceRecord, sev models.Severity) []models.DivergenceRecord {
	var out []models.DivergenceRecord
	for _, r := range records {
		if r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}

func durationText(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}
