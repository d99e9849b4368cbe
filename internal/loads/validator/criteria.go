package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"freightline/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type CriteriaValidator struct {
	validate *validator.Validate
}

func NewCriteriaValidator() *CriteriaValidator {
	return &CriteriaValidator{validate: validator.New()}
}

func (v *CriteriaValidator) Validate(criteria *model.SearchCriteria) error {
	if err := v.validate.Struct(criteria); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}

	if criteria.MinRate > 0 && criteria.MaxRate > 0 && criteria.MinRate > criteria.MaxRate {
		return ValidationErrors{
			ValidationError{
				Field:   "MinRate",
				Message: fmt.Sprintf("min_rate (%d) exceeds max_rate (%d)", criteria.MinRate, criteria.MaxRate),
			},
		}
	}

	return nil
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		}
		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}
