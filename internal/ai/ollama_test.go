package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testOptions() ModelOptions {
	return ModelOptions{Temperature: 0.3, NumCtx: 2048, NumGPU: 99, Mirostat: 0}
}

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "hello from ollama"},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 1, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "llama3.2:3b", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 16})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Fatalf("expected simulated request id")
	}

	// Connection options must ride along with every request.
	opts := captured.Options
	if opts == nil {
		t.Fatalf("options not serialized")
	}
	if got := opts["temperature"]; got != 0.3 {
		t.Fatalf("temperature: got %v", got)
	}
	for key, want := range map[string]float64{"num_ctx": 2048, "num_gpu": 99, "mirostat": 0, "num_predict": 16} {
		got, ok := opts[key].(float64)
		if !ok || got != want {
			t.Fatalf("option %s: got %v want %v", key, opts[key], want)
		}
	}
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:11435", testOptions(), 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:3b", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
}

func TestOllamaGenerateBadRequest(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid options"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:3b", Messages: []Message{{Role: "user", Content: "hi"}}})
	var badReq *BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("expected BadRequestError, got: %v", err)
	}
}

func TestOllamaGenerateModelNotFound(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'llama3.2:3b' not found"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:3b", Messages: []Message{{Role: "user", Content: "hi"}}})
	var notFound *ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ModelNotFoundError, got: %v", err)
	}
}

func TestOllamaGenerateRetriesServerError(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(atomic.AddInt32(&calls, 1)) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "loading model"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "recovered"},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 2, time.Millisecond, 5*time.Millisecond)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:3b", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Choices[0].Message.Content != "recovered" {
		t.Fatalf("unexpected content: %+v", resp)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	// A listener that is immediately closed yields a connection error.
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := "http://" + ln.Addr().String()
	_ = ln.Close()

	c := NewOllamaClient(addr, testOptions(), time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "llama3.2:3b", Messages: []Message{{Role: "user", Content: "hi"}}})
	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected UnreachableError, got: %v", err)
	}
}

func TestOllamaListModels(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{
					"name": "llama3.2:3b",
					"size": int64(2019393189),
					"details": map[string]any{
						"family":             "llama",
						"parameter_size":     "3.2B",
						"quantization_level": "Q4_K_M",
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 1, 0, 0)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.2:3b" || models[0].Family != "llama" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestOllamaHealth(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	c := NewOllamaClient(srv.URL, testOptions(), 2*time.Second, 1, 0, 0)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health error: %v", err)
	}
	srv.Close()

	if err := c.Health(context.Background()); err == nil {
		t.Fatalf("expected health failure after shutdown")
	}
}
