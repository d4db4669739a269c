package valuation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	CodeValidation       = "validation"
	CodeInsufficientData = "insufficient_data"
	CodeComputation      = "computation"
	CodeInternal         = "internal"
)

// Error is the error kind surfaced by pipeline stages. Stage is filled in
// by the assembler when a stage fails; the HTTP layer maps Code to a
// status via Status.
type Error struct {
	Code    string
	Message string
	Stage   string
	Status  int
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeInsufficientData:
		return 422
	case CodeComputation:
		return 500
	default:
		return 500
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusForCode(code)}
}

func NewValidationError(message string) error {
	return newError(CodeValidation, message)
}

func NewInsufficientDataError(message string) error {
	return newError(CodeInsufficientData, message)
}

func NewComputationError(message string) error {
	return newError(CodeComputation, message)
}

// withStage attaches the failing stage name without masking the original
// error kind. Non-Error values are wrapped as internal.
func withStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		cp := *ve
		cp.Stage = stage
		return &cp
	}
	return &Error{Code: CodeInternal, Message: err.Error(), Stage: stage, Status: 500}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateSubject checks the required subject-home fields and reports the
// first violation as a validation error.
func validateSubject(s SubjectHome) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return NewValidationError(fmt.Sprintf("subject home: field %q fails %q", f.Field(), f.Tag()))
	}
	return NewValidationError("subject home: " + err.Error())
}
