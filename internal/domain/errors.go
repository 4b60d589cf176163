package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInvalidStatus = "INVALID_STATUS"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid knowledge source type")
	ErrInvalidSourceStatus  = NewDomainError(ErrCodeValidation, "invalid knowledge source status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Status transition errors
var (
	ErrInvalidCrawlStatus = NewDomainError(ErrCodeInvalidStatus, "invalid url crawl status")
)

// Not found errors
var (
	ErrKnowledgeSourceNotFound = NewDomainError(ErrCodeNotFound, "knowledge source not found")
	ErrURLNotFound             = NewDomainError(ErrCodeNotFound, "knowledge base url not found")
	ErrChatbotNotFound         = NewDomainError(ErrCodeNotFound, "chatbot not found")
	ErrTenantNotFound          = NewDomainError(ErrCodeNotFound, "tenant not found")
	ErrAPIKeyNotFound          = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Already exists errors
var (
	ErrTenantAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "tenant already exists")
	ErrAPIKeyAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "api key already exists")
)

// Authorization errors
var (
	ErrAPIKeyRevoked   = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey   = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrChatbotNotOwned = NewDomainError(ErrCodeForbidden, "chatbot does not belong to this tenant")
)
