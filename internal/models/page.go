package models

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nemorize/restdown/internal/apperr"
)

// Pagination bounds.
const (
	DefaultOffset = 0
	DefaultLimit  = 10
	MaxLimit      = 100
)

const (
	msgOffset = "min [0]"
	msgLimit  = "between [1, 100]"
)

// Page selects a window of a post listing. Query, when non-empty, filters
// posts by case-insensitive title substring.
type Page struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Query  string `json:"query"`
}

// Validate enforces offset >= 0 and 1 <= limit <= 100. Violations are
// reported as *apperr.ValidationError keyed by field name.
func (p Page) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Offset, validation.Min(0).Error(msgOffset)),
		validation.Field(&p.Limit,
			validation.Required.Error(msgLimit),
			validation.Min(1).Error(msgLimit),
			validation.Max(MaxLimit).Error(msgLimit)),
	)
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fe := range errs {
		fields[field] = fe.Error()
	}
	return &apperr.ValidationError{Fields: fields}
}
