package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

const (
	AgingSheet       = "Aging"
	XLSXContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	moneyNumFmt      = 4 // #,##0.00
	agingHeaderRow   = 3
	agingFirstBucket = 2
)

var agingHeaders = []string{"Direction", "Current", "1-30 days", "31-60 days", "61-90 days", "Over 90 days", "Total"}

// AgingWorkbook renders the aging report as a single-sheet XLSX file.
func AgingWorkbook(report *model.AgingReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), AgingSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	_ = f.SetDocProps(&excelize.DocProperties{Title: "Aging report", Creator: "settlement-engine"})

	_ = f.SetCellValue(AgingSheet, "A1", "As of")
	_ = f.SetCellValue(AgingSheet, "B1", report.AsOf.Format("2006-01-02"))

	for i, h := range agingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, agingHeaderRow)
		_ = f.SetCellValue(AgingSheet, cell, h)
	}

	rows := []struct {
		label  model.Direction
		bucket model.AgingBucket
	}{
		{model.DirectionReceivable, report.Receivable},
		{model.DirectionPayable, report.Payable},
	}
	for r, row := range rows {
		rowIdx := agingHeaderRow + 1 + r
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		_ = f.SetCellValue(AgingSheet, cell, string(row.label))

		b := row.bucket
		for c, amount := range []decimal.Decimal{b.Current, b.Bucket30, b.Bucket60, b.Bucket90, b.Bucket120, b.Total} {
			cell, _ := excelize.CoordinatesToCellName(agingFirstBucket+c, rowIdx)
			_ = f.SetCellValue(AgingSheet, cell, amount.Round(2).InexactFloat64())
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(agingFirstBucket, agingHeaderRow+1)
	last, _ := excelize.CoordinatesToCellName(len(agingHeaders), agingHeaderRow+len(rows))
	if err := f.SetCellStyle(AgingSheet, first, last, style); err != nil {
		return nil, fmt.Errorf("apply money style: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
