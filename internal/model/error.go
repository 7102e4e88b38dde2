package model

import "strings"

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	Fields        []string `json:"fields,omitempty"`
	IsDuplicate   bool     `json:"isDuplicate,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeInvalidField     = "INVALID_FIELD"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeMissingID        = "MISSING_ID"
	ErrCodeInvalidPage      = "INVALID_PAGE"
	ErrCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrCodeDuplicateProduct = "DUPLICATE_PRODUCT"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrInvalidID        = NewDomainError(ErrCodeInvalidID, "Product id is malformed")
	ErrMissingID        = NewDomainError(ErrCodeMissingID, "Product id is required")
	ErrProductNotFound  = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrDuplicateProduct = NewDomainError(ErrCodeDuplicateProduct, "Product already exists")
)

// ValidationError reports the request fields that failed a check.
type ValidationError struct {
	Code    string
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func NewValidationError(code string, fields []string, message string) *ValidationError {
	return &ValidationError{Code: code, Fields: fields, Message: message}
}
