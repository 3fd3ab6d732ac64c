package batch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jarnaud/docfields/constants"
)

// exportColumns are the field-set keys worth a spreadsheet column, in order.
var exportColumns = []constants.Field{
	constants.FieldSupplier,
	constants.FieldInvoiceNumber,
	constants.FieldDocumentDate,
	constants.FieldHT,
	constants.FieldTVAPct,
	constants.FieldTVAAmount,
	constants.FieldTTC,
	constants.FieldNetToPay,
	constants.FieldSIRET,
}

// WriteResultsXLSX renders a batch run as one XLSX workbook, one row per
// processed file.
func WriteResultsXLSX(results []FileResult, outPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"File"}
	for _, col := range exportColumns {
		headers = append(headers, string(col))
	}
	headers = append(headers, "confidence", "totals_ok", "error")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, res := range results {
		row := []any{res.Path}
		for _, col := range exportColumns {
			row = append(row, cellFor(res, col))
		}
		row = append(row, res.Result.Confidence, res.Result.TotalsOK, res.ReadErr)
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		logger.Warn("delete default sheet", "error", err)
	}
	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	logger.Info("exported batch results", "path", outPath, "rows", len(results), "duration", time.Since(start))
	return nil
}

func cellFor(res FileResult, f constants.Field) any {
	if res.ReadErr != "" {
		return ""
	}
	if v, ok := res.Result.FieldSet.Num(f); ok {
		return v
	}
	if s, ok := res.Result.FieldSet.Str(f); ok {
		return s
	}
	return ""
}
