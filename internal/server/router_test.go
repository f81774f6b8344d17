package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/pageoracle/internal/api/handlers"
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

func setupRouter(t *testing.T) (http.Handler, *MockQueryService) {
	t.Helper()
	querySvc := new(MockQueryService)

	persona, err := service.PersonaByName("leadership")
	require.NoError(t, err)
	ui, err := handlers.NewUIHandler(persona.UI)
	require.NoError(t, err)

	cfg := RouterConfig{
		UIHandler:     ui,
		AskHandler:    handlers.NewAskHandler(querySvc, handlers.AskOptions{}),
		HealthHandler: handlers.NewHealthHandler(service.NewDisabledHistoryLogger(), "preloaded"),
	}

	return NewRouter(cfg), querySvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "disabled", resp["history"])
	assert.Equal(t, "preloaded", resp["lifecycle"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ChatPage(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRouter_Ask(t *testing.T) {
	router, querySvc := setupRouter(t)
	querySvc.On("Ask", mock.Anything, "What does Sinek say about trust?").
		Return(&domain.Answer{Text: "Trust comes from the Circle of Safety."}, nil)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"text":"What does Sinek say about trust?"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"Trust comes from the Circle of Safety."}`, w.Body.String())
	querySvc.AssertExpectations(t)
}

func TestRouter_AskMissingText(t *testing.T) {
	router, querySvc := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	querySvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestRouter_AskBodyTooLarge(t *testing.T) {
	router, querySvc := setupRouter(t)

	body := `{"text":"` + string(bytes.Repeat([]byte("a"), 2<<20)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request body too large")
	querySvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestRouter_AskStreamedBodyTooLarge(t *testing.T) {
	router, querySvc := setupRouter(t)

	body := `{"text":"` + string(bytes.Repeat([]byte("a"), 2<<20)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(body))
	req.ContentLength = -1
	req.Header.Set("Transfer-Encoding", "chunked")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "request body too large", resp["detail"])
	querySvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestRouter_UnknownRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	routes := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/ask", http.StatusMethodNotAllowed},
		{http.MethodGet, "/knowledge", http.StatusNotFound},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, route.status, w.Code)
			assert.Contains(t, w.Body.String(), `"detail"`)
		})
	}
}
