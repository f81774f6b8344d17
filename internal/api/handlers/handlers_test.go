package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

type MockHistoryStatus struct {
	mock.Mock
}

func (m *MockHistoryStatus) Status() string {
	args := m.Called()
	return args.String(0)
}

func postAsk(h *AskHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Ask(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAskHandler_Success(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "What does Sinek say about trust?").
		Return(&domain.Answer{Text: "Trust is built inside the Circle of Safety.", Sources: []int{3, 7}}, nil)

	w := postAsk(NewAskHandler(svc, AskOptions{}), `{"text": "What does Sinek say about trust?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Trust is built inside the Circle of Safety.", resp["answer"])
	_, hasSources := resp["sources"]
	assert.False(t, hasSources)
	svc.AssertExpectations(t)
}

func TestAskHandler_IncludeSources(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "trust?").Return(&domain.Answer{Text: "answer", Sources: []int{3, 7}}, nil)

	w := postAsk(NewAskHandler(svc, AskOptions{IncludeSources: true}), `{"text":"trust?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{3, 7}, resp.Sources)
}

func TestAskHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"missing text", `{}`, "field required: text"},
		{"null text", `{"text": null}`, "field required: text"},
		{"blank text", `{"text": "   "}`, "question cannot be empty"},
		{"non-string text", `{"text": 42}`, domain.ErrInvalidBody.Message},
		{"not json", `text=hello`, domain.ErrInvalidBody.Message},
		{"json array", `["hello"]`, domain.ErrInvalidBody.Message},
		{"empty body", ``, domain.ErrInvalidBody.Message},
		{"trailing garbage", `{"text":"hi"} junk`, domain.ErrInvalidBody.Message},
		{"two objects", `{"text":"a"}{"text":"b"}`, domain.ErrInvalidBody.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockQueryService)

			w := postAsk(NewAskHandler(svc, AskOptions{}), tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, tt.detail, decode(t, w)["detail"])
			svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
		})
	}
}

func TestAskHandler_TrailingWhitespaceAllowed(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "trust?").Return(&domain.Answer{Text: "Safety."}, nil)

	w := postAsk(NewAskHandler(svc, AskOptions{}), "{\"text\":\"trust?\"}\n  ")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAskHandler_StreamedBodyOverLimit(t *testing.T) {
	svc := new(MockQueryService)
	h := NewAskHandler(svc, AskOptions{})

	body := `{"text":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 16)

	h.Ask(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "request body too large", decode(t, w)["detail"])
	svc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAskHandler_GenerationFailureDetailed(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "trust?").
		Return(nil, domain.Generation("failed to generate answer", errors.New("groq: 503 model overloaded")))

	w := postAsk(NewAskHandler(svc, AskOptions{}), `{"text":"trust?"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "groq: 503 model overloaded")
}

func TestAskHandler_GenerationFailureSecure(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "trust?").
		Return(nil, domain.Generation("failed to generate answer", errors.New("groq: 503 model overloaded")))

	w := postAsk(NewAskHandler(svc, AskOptions{SecureErrors: true}), `{"text":"trust?"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "the answer service is unavailable", decode(t, w)["detail"])
}

func TestAskHandler_IngestionFailure(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Ask", mock.Anything, "trust?").Return(nil, domain.ErrDocumentNotFound)

	w := postAsk(NewAskHandler(svc, AskOptions{}), `{"text":"trust?"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "document not found")
}

func TestHealthHandler(t *testing.T) {
	history := new(MockHistoryStatus)
	history.On("Status").Return(service.HistoryUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	NewHealthHandler(history, "preloaded").Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, service.HistoryUnavailable, resp.History)
	assert.Equal(t, "preloaded", resp.Lifecycle)
	history.AssertExpectations(t)
}

func TestHealthHandler_NoHistory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	NewHealthHandler(nil, "on-demand").Health(w, req)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "disabled", resp.History)
}

func TestUIHandler_RendersPersona(t *testing.T) {
	persona, err := service.PersonaByName("leadership")
	require.NoError(t, err)

	h, err := NewUIHandler(persona.UI)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, "Leaders Eat Last Oracle")
	assert.Contains(t, body, "#2563eb")
	assert.Contains(t, body, `fetch("/ask"`)
	assert.Contains(t, body, "textContent")
}

func TestUIHandler_FatturaPersona(t *testing.T) {
	persona, err := service.PersonaByName("fattura")
	require.NoError(t, err)

	h, err := NewUIHandler(persona.UI)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	assert.Contains(t, body, `<html lang="it">`)
	assert.Contains(t, body, "Agenzia Entrate Assistant")
	assert.Contains(t, body, "#15803d")
	assert.Contains(t, body, "Invia")
}

func TestUIHandler_EscapesStrings(t *testing.T) {
	h, err := NewUIHandler(service.PersonaUI{Lang: "en", Heading: "<script>alert(1)</script>", Accent: "unknown"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	assert.False(t, strings.Contains(body, "<script>alert(1)</script>"))
	assert.Contains(t, body, "#2563eb")
}
