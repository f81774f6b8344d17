package handlers

import (
	"net/http"

	"github.com/cloo-solutions/pageoracle/internal/api"
)

type HistoryStatus interface {
	Status() string
}

type HealthHandler struct {
	history   HistoryStatus
	lifecycle string
}

func NewHealthHandler(history HistoryStatus, lifecycle string) *HealthHandler {
	return &HealthHandler{history: history, lifecycle: lifecycle}
}

type HealthResponse struct {
	Status    string `json:"status"`
	History   string `json:"history"`
	Lifecycle string `json:"lifecycle"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	history := "disabled"
	if h.history != nil {
		history = h.history.Status()
	}

	api.JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		History:   history,
		Lifecycle: h.lifecycle,
	})
}
