package excel

import (
	"context"
	"fmt"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

type Validator struct {
	maxRows int
}

func NewValidator(maxRows int) *Validator {
	return &Validator{maxRows: maxRows}
}

func (v *Validator) Validate(ctx context.Context, rows []model.FeedbackRow) error {
	if len(rows) == 0 {
		return errors.ErrSchemaValidation
	}
	if v.maxRows > 0 && len(rows) > v.maxRows {
		return errors.ValidationError{
			Field:   "rows",
			Value:   len(rows),
			Message: fmt.Sprintf("at most %d rows per import", v.maxRows),
		}
	}

	for _, row := range rows {
		if err := row.Submission().Validate(); err != nil {
			return fmt.Errorf("row %d: %w", row.Line, err)
		}
	}

	return nil
}
