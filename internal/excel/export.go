package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

const (
	DefaultSheetName = "Feedback_Report"
	DateLayout       = "2006-01-02 15:04:05"
	ContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []any{"Date", "Dining", "Stay", "Conference", "Campus", "Activity", "Comments"}

// Exporter writes the feedback report workbook.
type Exporter struct {
	sheetName string
	loc       *time.Location
}

func NewExporter(sheetName string, loc *time.Location) *Exporter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{sheetName: sheetName, loc: loc}
}

func (e *Exporter) Write(w io.Writer, feedback []model.Feedback) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", e.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := file.SetSheetRow(e.sheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		file.SetRowStyle(e.sheetName, 1, 1, headerStyle)
	}
	file.SetColWidth(e.sheetName, "A", "A", 20)
	file.SetColWidth(e.sheetName, "G", "G", 60)

	for i, f := range feedback {
		comments := f.Comments
		if comments == "" {
			comments = "N/A"
		}

		row := []any{
			f.SubmittedAt.In(e.loc).Format(DateLayout),
			f.Food,
			f.Stay,
			f.Conference,
			f.Campus,
			f.Activities,
			comments,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(e.sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
