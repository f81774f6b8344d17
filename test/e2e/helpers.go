//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cloo-solutions/pageoracle/internal/api/handlers"
	"github.com/cloo-solutions/pageoracle/internal/document"
	"github.com/cloo-solutions/pageoracle/internal/openai"
	"github.com/cloo-solutions/pageoracle/internal/repository"
	"github.com/cloo-solutions/pageoracle/internal/server"
	"github.com/cloo-solutions/pageoracle/internal/service"
	"github.com/cloo-solutions/pageoracle/internal/testutil"
)

// leadershipPages is a tiny stand-in for the book, one topic per page.
var leadershipPages = []string{
	"Leaders Eat Last. Why some teams pull together and others do not.",
	"Trust is the foundation of every strong team. Sinek says trust grows when leaders make people feel safe inside the Circle of Safety.",
	"Dopamine rewards us for finding food and finishing goals. Endorphins mask physical pain so we can keep going.",
	"In the Marine Corps officers eat last. Rank brings the obligation to look after those in your care.",
}

const embeddingDims = 64

// fakeLLM emulates the OpenAI-compatible embeddings and chat endpoints.
// Embeddings are hashed bags of words so lexical overlap drives retrieval.
type fakeLLM struct {
	server *httptest.Server

	failChat        atomic.Bool
	embeddingInputs atomic.Int64

	mu      sync.Mutex
	prompts []string
}

func newFakeLLM(t *testing.T) *fakeLLM {
	t.Helper()
	f := &fakeLLM{}
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", f.handleEmbeddings)
	mux.HandleFunc("/chat/completions", f.handleChat)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLLM) URL() string {
	return f.server.URL
}

func (f *fakeLLM) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeLLM) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.embeddingInputs.Add(int64(len(req.Input)))

	data := make([]map[string]interface{}, len(req.Input))
	for i, text := range req.Input {
		data[i] = map[string]interface{}{
			"object":    "embedding",
			"index":     i,
			"embedding": bagOfWords(text),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"data":   data,
		"model":  req.Model,
		"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func (f *fakeLLM) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if f.failChat.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "induced generator failure", "type": "server_error"},
		})
		return
	}

	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-e2e",
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]string{
				"role":    "assistant",
				"content": "Trust is built when leaders make people feel safe.",
			},
		}},
	})
}

func bagOfWords(text string) []float32 {
	v := make([]float32, embeddingDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, word := range words {
		if len(word) < 4 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%embeddingDims]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

// E2EOptions selects the deployment shape under test.
type E2EOptions struct {
	Lifecycle      string
	TopK           int
	HistoryURI     string
	SecureErrors   bool
	IncludeSources bool
	Segments       service.SegmentRepository
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	LLM        *fakeLLM
	PDFPath    string
	Factory    *service.EngineFactory
	History    *service.HistoryLogger
	ServerURL  string
	BinaryDir  string
	HTTPClient *http.Client
}

// SetupE2EEnv wires the real stack against the fake LLM and a generated PDF.
func SetupE2EEnv(t *testing.T, opts E2EOptions) *E2ETestEnv {
	t.Helper()
	ctx := context.Background()

	if opts.Lifecycle == "" {
		opts.Lifecycle = "preloaded"
	}

	llm := newFakeLLM(t)

	pdfPath := filepath.Join(t.TempDir(), "Leaders-Eat-Last-Sinek.pdf")
	if err := os.WriteFile(pdfPath, testutil.BuildPDF(leadershipPages), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}

	persona, err := service.PersonaByName("leadership")
	if err != nil {
		t.Fatalf("failed to load persona: %v", err)
	}

	embedder := openai.NewEmbedder(openai.EmbedderConfig{
		ClientConfig: openai.ClientConfig{APIKey: "test", BaseURL: llm.URL()},
		Model:        "text-embedding-3-small",
		Dimensions:   embeddingDims,
		BatchSize:    2,
	})
	generator := openai.NewGenerator(openai.GeneratorConfig{
		ClientConfig: openai.ClientConfig{APIKey: "test", BaseURL: llm.URL()},
		Model:        "llama-3.3-70b-versatile",
		Temperature:  0.3,
	})

	factory := service.NewEngineFactory(document.NewLoader(nil), embedder, generator, service.EngineFactoryConfig{
		DocumentURI: pdfPath,
		Chunking:    service.NewChunkConfig(200, 20),
		Persona:     persona.Name,
		Segments:    opts.Segments,
	})

	var engines service.EngineProvider
	if opts.Lifecycle == "on-demand" {
		engines = service.NewOnDemandProvider(factory)
	} else {
		preloaded, err := service.NewPreloadedProvider(ctx, factory)
		if err != nil {
			t.Fatalf("failed to build engine: %v", err)
		}
		engines = preloaded
	}

	history := service.NewDisabledHistoryLogger()
	if opts.HistoryURI != "" {
		store, err := repository.OpenHistoryStore(ctx, opts.HistoryURI, "leadership_oracle_db")
		if err != nil {
			t.Logf("history store not opened: %v", err)
		}
		history = service.NewHistoryLogger(store)
		history.Ping(ctx)
	}

	querySvc := service.NewQueryService(engines, history, service.QueryConfig{
		Persona:   persona,
		TopK:      opts.TopK,
		Label:     "e2e",
		Lifecycle: opts.Lifecycle,
	})

	ui, err := handlers.NewUIHandler(persona.UI)
	if err != nil {
		t.Fatalf("failed to render chat page: %v", err)
	}

	router := server.NewRouter(server.RouterConfig{
		UIHandler: ui,
		AskHandler: handlers.NewAskHandler(querySvc, handlers.AskOptions{
			IncludeSources: opts.IncludeSources,
			SecureErrors:   opts.SecureErrors,
		}),
		HealthHandler: handlers.NewHealthHandler(history, opts.Lifecycle),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		engines.Close()
		history.Close(context.Background())
	})

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		LLM:        llm,
		PDFPath:    pdfPath,
		Factory:    factory,
		History:    history,
		ServerURL:  srv.URL,
		HTTPClient: srv.Client(),
	}
}

// Response is a decoded HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// JSON decodes the body into a generic map.
func (r *Response) JSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, r.Body)
	}
	return out
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) *Response {
	return e.doRequest(http.MethodGet, path, nil)
}

// PostRaw performs a POST request with a raw body
func (e *E2ETestEnv) PostRaw(path, body string) *Response {
	return e.doRequest(http.MethodPost, path, strings.NewReader(body))
}

// Ask posts a question to /ask
func (e *E2ETestEnv) Ask(question string) *Response {
	body, _ := json.Marshal(map[string]string{"text": question})
	return e.doRequest(http.MethodPost, "/ask", bytes.NewReader(body))
}

func (e *E2ETestEnv) doRequest(method, path string, body io.Reader) *Response {
	e.T.Helper()

	req, err := http.NewRequest(method, e.ServerURL+path, body)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}
}

// BuildBinaries builds the oracle CLI
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir := e.T.TempDir()
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "oracle"), "./cmd/oracle")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build oracle: %v\n%s", err, out)
	}
}

// RunOracle runs the oracle CLI against the test server
func (e *E2ETestEnv) RunOracle(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "oracle"), args...)
	cmd.Dir = e.T.TempDir()
	cmd.Env = append(os.Environ(), fmt.Sprintf("ORACLE_API_URL=%s", e.ServerURL))
	out, err := cmd.CombinedOutput()
	return string(out), err
}
