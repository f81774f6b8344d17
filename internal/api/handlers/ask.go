package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloo-solutions/pageoracle/internal/api"
	"github.com/cloo-solutions/pageoracle/internal/domain"
)

type QueryService interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

type AskOptions struct {
	IncludeSources bool
	SecureErrors   bool
}

type AskHandler struct {
	svc    QueryService
	opts   AskOptions
	errors api.ErrorWriter
}

func NewAskHandler(svc QueryService, opts AskOptions) *AskHandler {
	return &AskHandler{
		svc:    svc,
		opts:   opts,
		errors: api.ErrorWriter{Secure: opts.SecureErrors},
	}
}

// AskRequest uses a pointer so a missing field can be told apart from an empty one.
type AskRequest struct {
	Text *string `json:"text"`
}

type AskResponse struct {
	Answer  string `json:"answer"`
	Sources []int  `json:"sources,omitempty"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeAskRequest(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, api.BodyTooLargeDetail)
			return
		}
		h.errors.Handle(w, r, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrInvalidBody.Message, err))
		return
	}

	if req.Text == nil {
		h.errors.Handle(w, r, domain.ErrMissingQuestion)
		return
	}

	if strings.TrimSpace(*req.Text) == "" {
		h.errors.Handle(w, r, domain.ErrEmptyQuestion)
		return
	}

	answer, err := h.svc.Ask(r.Context(), *req.Text)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := AskResponse{Answer: answer.Text}
	if h.opts.IncludeSources {
		resp.Sources = answer.Sources
	}

	api.JSON(w, http.StatusOK, resp)
}

// decodeAskRequest reads exactly one JSON value; anything after it is rejected.
func decodeAskRequest(body io.Reader, req *AskRequest) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(req); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}
