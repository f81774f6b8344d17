package domain

import (
	"errors"
	"fmt"
)

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

// Is reports whether target is a DomainError with the same code and message,
// so wrapped sentinels still match with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
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

// Error codes. Each failure category of the question pipeline has its own
// code so the HTTP layer can pick a status, a log level and a client message.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeIngestion   = "INGESTION_ERROR"
	ErrCodeRetrieval   = "RETRIEVAL_ERROR"
	ErrCodeGeneration  = "GENERATION_ERROR"
	ErrCodePersistence = "PERSISTENCE_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion   = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrMissingQuestion = NewDomainError(ErrCodeValidation, "field required: text")
	ErrInvalidBody     = NewDomainError(ErrCodeValidation, "request body must be a JSON object with a string field 'text'")
)

// Ingestion errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeIngestion, "document not found")
	ErrDocumentEmpty    = NewDomainError(ErrCodeIngestion, "document has no extractable text")
	ErrDocumentCorrupt  = NewDomainError(ErrCodeIngestion, "document could not be parsed")
)

// Retrieval errors
var (
	ErrDimensionMismatch = NewDomainError(ErrCodeRetrieval, "embedding dimension mismatch")
	ErrIndexNotBuilt     = NewDomainError(ErrCodeRetrieval, "index has not been built")
)

// Generation errors
var (
	ErrEmptyCompletion = NewDomainError(ErrCodeGeneration, "model returned no choices")
)

// Persistence errors
var (
	ErrHistoryUnavailable = NewDomainError(ErrCodePersistence, "history store unavailable")
	ErrUnsupportedStore   = NewDomainError(ErrCodePersistence, "unsupported history store URI")
)

// Ingestion wraps err as a document ingestion failure.
func Ingestion(message string, err error) error {
	return wrap(ErrCodeIngestion, message, err)
}

// Retrieval wraps err as an embedding or index failure.
func Retrieval(message string, err error) error {
	return wrap(ErrCodeRetrieval, message, err)
}

// Generation wraps err as a remote generation failure.
func Generation(message string, err error) error {
	return wrap(ErrCodeGeneration, message, err)
}

// Persistence wraps err as a history store failure.
func Persistence(message string, err error) error {
	return wrap(ErrCodePersistence, message, err)
}

// wrap keeps an existing DomainError as-is so the innermost category wins.
func wrap(code, message string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewDomainErrorWithCause(code, message, err)
}

// CodeOf returns the category code carried by err, or ErrCodeInternal.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}
