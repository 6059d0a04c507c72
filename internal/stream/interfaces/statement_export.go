package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"paystream/internal/fixedpoint"
	stream "paystream/internal/stream/domain"
)

// StatementView carries the derived figures rendered alongside the
// stream record.
type StatementView struct {
	Stream   *stream.Stream
	Streamed int64
	Status   stream.Status
	AsOf     int64
}

// BuildStreamStatementPDF renders a minimal PDF for a stream statement.
func BuildStreamStatementPDF(view StatementView) ([]byte, error) {
	if view.Stream == nil {
		return nil, stream.ErrNilStream
	}
	record := view.Stream

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Payment Stream Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Stream: %d", record.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sender: %s", record.Sender))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Recipient: %s", record.Recipient))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Asset: %s", record.Token))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", view.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("As of: %s", time.Unix(view.AsOf, 0).UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Field", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	rows := [][2]string{
		{"Start", time.Unix(record.StartTime, 0).UTC().Format(time.RFC3339)},
		{"Cliff", time.Unix(record.CliffTime, 0).UTC().Format(time.RFC3339)},
		{"Stop", time.Unix(record.StopTime, 0).UTC().Format(time.RFC3339)},
		{"Deposit", formatAmount(record.Deposit)},
		{"Streamed", formatAmount(view.Streamed)},
		{"Withdrawn", formatAmount(record.Withdrawn)},
		{"Refunded", formatAmount(record.Refunded)},
		{"Remaining", formatAmount(record.Deposit - record.Withdrawn - record.Refunded)},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 6, row[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStreamStatementXLSX renders a minimal XLSX for a stream statement.
func BuildStreamStatementXLSX(view StatementView) ([]byte, error) {
	if view.Stream == nil {
		return nil, stream.ErrNilStream
	}
	record := view.Stream

	f := excelize.NewFile()
	sheet := "statement"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Payment Stream Statement")
	_ = f.SetCellValue(sheet, "A3", "Stream")
	_ = f.SetCellValue(sheet, "B3", record.ID)
	_ = f.SetCellValue(sheet, "A4", "Sender")
	_ = f.SetCellValue(sheet, "B4", record.Sender)
	_ = f.SetCellValue(sheet, "A5", "Recipient")
	_ = f.SetCellValue(sheet, "B5", record.Recipient)
	_ = f.SetCellValue(sheet, "A6", "Asset")
	_ = f.SetCellValue(sheet, "B6", record.Token)
	_ = f.SetCellValue(sheet, "A7", "Status")
	_ = f.SetCellValue(sheet, "B7", string(view.Status))
	_ = f.SetCellValue(sheet, "A8", "As of")
	_ = f.SetCellValue(sheet, "B8", time.Unix(view.AsOf, 0).UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A9", "Start")
	_ = f.SetCellValue(sheet, "B9", time.Unix(record.StartTime, 0).UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A10", "Cliff")
	_ = f.SetCellValue(sheet, "B10", time.Unix(record.CliffTime, 0).UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A11", "Stop")
	_ = f.SetCellValue(sheet, "B11", time.Unix(record.StopTime, 0).UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A12", "Deposit")
	_ = f.SetCellValue(sheet, "B12", formatAmount(record.Deposit))
	_ = f.SetCellValue(sheet, "A13", "Streamed")
	_ = f.SetCellValue(sheet, "B13", formatAmount(view.Streamed))
	_ = f.SetCellValue(sheet, "A14", "Withdrawn")
	_ = f.SetCellValue(sheet, "B14", formatAmount(record.Withdrawn))
	_ = f.SetCellValue(sheet, "A15", "Refunded")
	_ = f.SetCellValue(sheet, "B15", formatAmount(record.Refunded))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatAmount renders a 7-decimal fixed-point amount.
func formatAmount(units int64) string {
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%07d", sign, units/fixedpoint.Scale, units%fixedpoint.Scale)
}
