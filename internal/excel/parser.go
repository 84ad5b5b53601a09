package excel

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const (
	colDate       = "date"
	colFood       = "food"
	colStay       = "stay"
	colConference = "conference"
	colCampus     = "campus"
	colActivities = "activities"
	colComments   = "comments"
)

// headerAliases maps accepted header spellings to canonical columns. The
// export headers are included so a downloaded report can be re-imported.
var headerAliases = map[string]string{
	"date":               colDate,
	"submittedat":        colDate,
	"submitted_at":       colDate,
	"dining":             colFood,
	"food":               colFood,
	"stay":               colStay,
	"accommodation":      colStay,
	"conference":         colConference,
	"campus":             colCampus,
	"activity":           colActivities,
	"activities":         colActivities,
	"comments":           colComments,
	"remarks":            colComments,
	"additional remarks": colComments,
}

var requiredColumns = []string{colFood, colStay, colConference, colCampus}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

type Parser struct {
	loc *time.Location
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc}
}

func (p *Parser) Parse(ctx context.Context, data []byte) ([]model.FeedbackRow, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", errors.ErrInvalidFileFormat, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	if len(rows) < 2 { // Header + at least one data row
		return nil, errors.ErrInvalidFileFormat
	}

	columnMap := make(map[string]int)
	for i, col := range rows[0] {
		if canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(col))]; ok {
			if _, seen := columnMap[canonical]; !seen {
				columnMap[canonical] = i
			}
		}
	}

	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, fmt.Errorf("%w: missing required column: %s", errors.ErrInvalidFileFormat, col)
		}
	}

	var feedback []model.FeedbackRow
	for i, row := range rows[1:] {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isBlank(row) {
			continue
		}

		parsed, err := p.parseRow(row, columnMap, i+2)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+2, err)
		}
		feedback = append(feedback, *parsed)
	}

	return feedback, nil
}

func (p *Parser) parseRow(row []string, columnMap map[string]int, rowNum int) (*model.FeedbackRow, error) {
	getValue := func(colName string) string {
		if idx, exists := columnMap[colName]; exists && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	parsed := &model.FeedbackRow{Line: rowNum}

	ratings := []struct {
		col string
		dst *int
	}{
		{colFood, &parsed.Food},
		{colStay, &parsed.Stay},
		{colConference, &parsed.Conference},
		{colCampus, &parsed.Campus},
		{colActivities, &parsed.Activities},
	}
	for _, r := range ratings {
		v, err := parseRating(getValue(r.col))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", r.col, err)
		}
		*r.dst = v
	}

	comments := getValue(colComments)
	if strings.EqualFold(comments, "N/A") {
		comments = ""
	}
	parsed.Comments = comments

	if raw := getValue(colDate); raw != "" {
		at, err := p.parseDate(raw)
		if err != nil {
			return nil, err
		}
		parsed.SubmittedAt = &at
	}

	return parsed, nil
}

func (p *Parser) parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date value: %s", raw)
}

// parseRating accepts blank (not rated), integers and whole floats such as
// "4.0", which spreadsheet tools often produce.
func parseRating(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return int(f), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
