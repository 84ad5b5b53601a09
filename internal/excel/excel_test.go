package excel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := file.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExporter_Layout(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	feedback := []model.Feedback{
		{Food: 5, Stay: 4, Conference: 5, Campus: 3, Activities: 0, Comments: "", SubmittedAt: time.Date(2025, 2, 14, 4, 30, 0, 0, time.UTC)},
		{Food: 2, Stay: 3, Conference: 4, Campus: 5, Activities: 1, Comments: "More chai", SubmittedAt: time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := NewExporter("", ist).Write(&buf, feedback); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer file.Close()

	if sheets := file.GetSheetList(); len(sheets) != 1 || sheets[0] != "Feedback_Report" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := file.GetRows("Feedback_Report")
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"Date", "Dining", "Stay", "Conference", "Campus", "Activity", "Comments"},
		{"2025-02-14 10:00:00", "5", "4", "5", "3", "0", "N/A"},
		{"2025-02-15 15:30:00", "2", "3", "4", "5", "1", "More chai"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("cell (%d,%d) = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestExportThenImport(t *testing.T) {
	at := time.Date(2025, 2, 14, 9, 15, 0, 0, time.UTC)
	feedback := []model.Feedback{{Food: 4, Stay: 5, Conference: 3, Campus: 4, Activities: 2, Comments: "", SubmittedAt: at}}

	var buf bytes.Buffer
	if err := NewExporter("", time.UTC).Write(&buf, feedback); err != nil {
		t.Fatal(err)
	}

	strategy := NewExcelStrategy(time.UTC)
	rows, err := strategy.Parse(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := strategy.Validate(context.Background(), rows); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	got := rows[0]
	if got.Food != 4 || got.Stay != 5 || got.Conference != 3 || got.Campus != 4 || got.Activities != 2 {
		t.Errorf("ratings changed in round trip: %+v", got)
	}
	if got.Comments != "" {
		t.Errorf("expected N/A to import as empty comment, got %q", got.Comments)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(at) {
		t.Errorf("expected date %s, got %v", at, got.SubmittedAt)
	}
}

func TestParser_Aliases(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Accommodation", "Food", "Conference", "Campus", "Activities", "Remarks", "Ignored"},
		{"4", "5.0", 3, 2, "", "Good hosts", "x"},
		{},
		{5, 5, 5, 5, 5, "", ""},
	})

	rows, err := NewParser(nil).Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank row skipped, got %d rows", len(rows))
	}
	if rows[0].Stay != 4 || rows[0].Food != 5 || rows[0].Activities != 0 || rows[0].Comments != "Good hosts" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].SubmittedAt != nil {
		t.Error("expected no date when the column is absent")
	}
	if rows[1].Line != 4 {
		t.Errorf("expected spreadsheet line 4, got %d", rows[1].Line)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name          string
		data          []byte
		wantFormatErr bool
	}{
		{name: "not a workbook", data: []byte("hello"), wantFormatErr: true},
		{name: "header only", data: buildWorkbook(t, [][]any{{"Dining", "Stay", "Conference", "Campus"}}), wantFormatErr: true},
		{name: "missing column", data: buildWorkbook(t, [][]any{{"Dining", "Stay", "Conference"}, {5, 5, 5}}), wantFormatErr: true},
		{name: "fractional rating", data: buildWorkbook(t, [][]any{{"Dining", "Stay", "Conference", "Campus"}, {4.5, 5, 5, 5}})},
		{name: "bad date", data: buildWorkbook(t, [][]any{{"Date", "Dining", "Stay", "Conference", "Campus"}, {"yesterday", 5, 5, 5, 5}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(time.UTC).Parse(context.Background(), tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, apperrors.ErrInvalidFileFormat); got != tt.wantFormatErr {
				t.Errorf("ErrInvalidFileFormat = %v, want %v (err: %v)", got, tt.wantFormatErr, err)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator(2)
	ctx := context.Background()
	ok := model.FeedbackRow{Line: 2, Food: 5, Stay: 5, Conference: 5, Campus: 5}

	if err := v.Validate(ctx, nil); !errors.Is(err, apperrors.ErrSchemaValidation) {
		t.Errorf("expected ErrSchemaValidation for empty import, got %v", err)
	}
	if err := v.Validate(ctx, []model.FeedbackRow{ok, ok, ok}); err == nil {
		t.Error("expected row limit error")
	}

	bad := ok
	bad.Line = 3
	bad.Campus = 0
	err := v.Validate(ctx, []model.FeedbackRow{ok, bad})
	var ve apperrors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "campus" {
		t.Errorf("expected campus validation error, got %v", err)
	}
}
