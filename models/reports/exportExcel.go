package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportExcel renders a finalized report into a workbook: one sheet for
// divergences, one for the integrity battery. Used by the CLI and the
// download endpoint.
func ExportExcel(report *ReconciliationReport) (*excelize.File, error) {
	f := excelize.NewFile()

	const divSheet = "Divergences"
	if err := f.SetSheetName("Sheet1", divSheet); err != nil {
		return nil, err
	}

	divHeaders := []string{"ID", "Severity", "EntityType", "EntityId", "EntityLabel", "PageUrl", "Selector", "FieldName", "DbValue", "UiValue", "Delta", "RootCauseCode", "Recommendation", "TraceId", "Timestamp"}
	for i, h := range divHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(divSheet, cell, h); err != nil {
			return nil, err
		}
	}
	for rowIdx, d := range report.Divergences {
		values := []any{d.ID, string(d.Severity), string(d.EntityType), d.EntityId, d.EntityLabel, d.PageUrl, d.Selector, d.FieldName, d.DbValue, d.UiValue, d.Delta, d.RootCauseCode, d.Recommendation, d.TraceId, d.Timestamp.Format("2006-01-02 15:04:05")}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(divSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	const riSheet = "Integrity"
	if _, err := f.NewSheet(riSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(riSheet, "A1", "Check")
	f.SetCellValue(riSheet, "B1", "Findings")
	if ri := report.Integrity; ri != nil {
		f.SetCellValue(riSheet, "A2", "Published auctions without lots")
		f.SetCellValue(riSheet, "B2", ri.PublishedWithoutLots)
		f.SetCellValue(riSheet, "A3", "Open lots under closed/cancelled auctions")
		f.SetCellValue(riSheet, "B3", ri.OpenLotsUnderDeadAuction)
		f.SetCellValue(riSheet, "A4", "Active bids on withdrawn/cancelled/closed lots")
		f.SetCellValue(riSheet, "B4", ri.ActiveBidsOnClosedLots)
		f.SetCellValue(riSheet, "A5", "Desynced counters")
		f.SetCellValue(riSheet, "B5", len(ri.DesyncedCounters))

		if len(ri.DesyncedCounters) > 0 {
			f.SetCellValue(riSheet, "A7", "Entity")
			f.SetCellValue(riSheet, "B7", "EntityId")
			f.SetCellValue(riSheet, "C7", "Field")
			f.SetCellValue(riSheet, "D7", "Stored")
			f.SetCellValue(riSheet, "E7", "Calculated")
			for i, c := range ri.DesyncedCounters {
				row := 8 + i
				f.SetCellValue(riSheet, fmt.Sprintf("A%d", row), string(c.EntityType))
				f.SetCellValue(riSheet, fmt.Sprintf("B%d", row), c.EntityId)
				f.SetCellValue(riSheet, fmt.Sprintf("C%d", row), c.FieldName)
				f.SetCellValue(riSheet, fmt.Sprintf("D%d", row), c.StoredValue)
				f.SetCellValue(riSheet, fmt.Sprintf("E%d", row), c.CalculatedValue)
			}
		}
	} else {
		f.SetCellValue(riSheet, "A2", "n/a — integrity battery not run")
	}

	return f, nil
}
