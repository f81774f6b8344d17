package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
)

// BodyTooLargeDetail is the detail of every 413 response.
const BodyTooLargeDetail = "request body too large"

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorResponse{Detail: detail})
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var secureMessages = map[string]string{
	domain.ErrCodeValidation: "invalid request",
	domain.ErrCodeIngestion:  "the source document could not be read",
	domain.ErrCodeRetrieval:  "the document index is unavailable",
	domain.ErrCodeGeneration: "the answer service is unavailable",
}

// SecureMessage returns the client-safe message for err's category.
func SecureMessage(err error) string {
	if msg, ok := secureMessages[domain.CodeOf(err)]; ok {
		return msg
	}
	return "an internal error occurred"
}

// ErrorWriter renders errors as {"detail": ...}. In secure mode the detail is a
// generic per-category message and the real error only reaches the logs.
type ErrorWriter struct {
	Secure bool
}

// Handle writes the response for err and reports server failures.
func (e ErrorWriter) Handle(w http.ResponseWriter, r *http.Request, err error) {
	status := DomainErrorToHTTP(err)

	if status >= http.StatusInternalServerError {
		log.Printf("error: %s %s: %v", r.Method, r.URL.Path, err)
		telemetry.CaptureError(r.Context(), err)
	} else {
		log.Printf("warn: %s %s: %v", r.Method, r.URL.Path, err)
	}

	Error(w, status, e.detail(err, status))
}

func (e ErrorWriter) detail(err error, status int) string {
	if e.Secure {
		return SecureMessage(err)
	}

	// Validation messages are already written for the client.
	var domainErr *domain.DomainError
	if status < http.StatusInternalServerError && errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// HandleError writes an error response in detailed mode.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ErrorWriter{}.Handle(w, r, err)
}
