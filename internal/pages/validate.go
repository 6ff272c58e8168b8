// Package pages holds one controller per screen. Each controller owns its
// view-state stores, runs local validation before any mutation reaches the
// API, and refreshes the affected store after a mutation succeeds.
package pages

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var simpleEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return simpleEmailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

// ValidationError is a local rejection; the request never left the process.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ValidEmail reports whether value passes the basic local@domain.tld check.
func ValidEmail(value string) bool {
	return simpleEmailPattern.MatchString(value)
}

type EmployeeForm struct {
	EmployeeID string `validate:"required"`
	FullName   string `validate:"required"`
	Email      string `validate:"required,simpleemail"`
	Department string `validate:"required"`
}

func (f EmployeeForm) trimmed() EmployeeForm {
	return EmployeeForm{
		EmployeeID: strings.TrimSpace(f.EmployeeID),
		FullName:   strings.TrimSpace(f.FullName),
		Email:      strings.TrimSpace(f.Email),
		Department: strings.TrimSpace(f.Department),
	}
}

func validateEmployeeForm(form EmployeeForm) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: "Invalid employee form."}
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Message: "All fields are required."}
		}
	}
	return &ValidationError{Message: "Please enter a valid email address."}
}

type rangeForm struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

func validateRange(from, to string) error {
	if err := validate.Struct(rangeForm{From: from, To: to}); err != nil {
		return &ValidationError{Message: "Dates must use the YYYY-MM-DD format."}
	}
	if from != "" && to != "" && from > to {
		return &ValidationError{Message: "The start date must not be after the end date."}
	}
	return nil
}

type MarkForm struct {
	Date   string `validate:"required,datetime=2006-01-02"`
	Status string `validate:"required,oneof=Present Absent"`
}

func validateMarkForm(form MarkForm) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Status" {
		return &ValidationError{Message: "Status must be Present or Absent."}
	}
	return &ValidationError{Message: "Please choose a valid date."}
}
