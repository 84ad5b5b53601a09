package excel

import (
	"context"
	"time"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

const DefaultMaxRows = 5000

type ParsingStrategy interface {
	Parse(ctx context.Context, data []byte) ([]model.FeedbackRow, error)
	Validate(ctx context.Context, rows []model.FeedbackRow) error
}

type ExcelStrategy struct {
	parser    *Parser
	validator *Validator
}

func NewExcelStrategy(loc *time.Location) ParsingStrategy {
	return &ExcelStrategy{
		parser:    NewParser(loc),
		validator: NewValidator(DefaultMaxRows),
	}
}

func (s *ExcelStrategy) Parse(ctx context.Context, data []byte) ([]model.FeedbackRow, error) {
	return s.parser.Parse(ctx, data)
}

func (s *ExcelStrategy) Validate(ctx context.Context, rows []model.FeedbackRow) error {
	return s.validator.Validate(ctx, rows)
}
