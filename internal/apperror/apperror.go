package apperror

import (
	"errors"
	"fmt"
)

// Error codes for extraction workflow failures.
const (
	CodeUnsupportedDocumentType = "UNSUPPORTED_DOCUMENT_TYPE"
	CodeExtractionFailed        = "EXTRACTION_FAILED"
	CodeParseFailed             = "PARSE_FAILED"
	CodeValidationFailed        = "VALIDATION_FAILED"
)

// Error is an application error with a machine-readable code and an optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrParse) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrUnsupportedDocumentType = &Error{Code: CodeUnsupportedDocumentType, Message: "unsupported document type"}
	ErrExtraction              = &Error{Code: CodeExtractionFailed, Message: "failed to extract document data"}
	ErrParse                   = &Error{Code: CodeParseFailed, Message: "failed to parse extracted data as JSON"}
	ErrValidation              = &Error{Code: CodeValidationFailed, Message: "extracted data validation failed"}
)

// New builds an Error.
func New(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Code returns the code of the first *Error in err's chain, or "" if there is none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
