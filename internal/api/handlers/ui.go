package handlers

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/cloo-solutions/pageoracle/internal/service"
)

//go:embed templates/chat.html
var chatPage string

var chatTemplate = template.Must(template.New("chat").Parse(chatPage))

var accentColors = map[string]string{
	"blue":  "#2563eb",
	"green": "#15803d",
}

type chatPageData struct {
	service.PersonaUI
	AccentColor string
}

// UIHandler serves the persona's chat page. The page is rendered once since
// nothing in it varies per request.
type UIHandler struct {
	page []byte
}

func NewUIHandler(ui service.PersonaUI) (*UIHandler, error) {
	color, ok := accentColors[ui.Accent]
	if !ok {
		color = accentColors["blue"]
	}

	var buf bytes.Buffer
	if err := chatTemplate.Execute(&buf, chatPageData{PersonaUI: ui, AccentColor: color}); err != nil {
		return nil, fmt.Errorf("failed to render chat page: %w", err)
	}
	return &UIHandler{page: buf.Bytes()}, nil
}

func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.page)
}
