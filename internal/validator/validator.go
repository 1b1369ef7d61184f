// Package validator wraps go-playground/validator with the service's
// business rules. Content validation for quiz questions lives here:
// the randomize package assumes well-formed input and never validates.
package validator

import (
	playground "github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *playground.Validate
	business *BusinessValidator
}

func New() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	return &Validator{
		validate: v,
		business: NewBusinessValidator(),
	}
}

// Validate runs struct-tag validation and returns nil or
// ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
