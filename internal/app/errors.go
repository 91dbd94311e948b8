package app

import (
	"fmt"
	"net/http"
)

// Codes carried in the "code" field of error responses.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeInvalidBody = "INVALID_BODY"
	codeNotFound    = "NOT_FOUND"
)

// DomainError is a failure with a fixed HTTP status and response code.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, codeValidation, message, details)
}
