package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Client is the model-endpoint surface the rest of the tool programs against.
// The concrete implementation talks to a local Ollama runtime; tests substitute
// stubs. The client is constructed once at process start, health-checked, and
// injected into whatever needs it.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	ListModels(ctx context.Context) ([]Model, error)
	Health(ctx context.Context) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	Choices   []Choice `json:"choices"`
	RequestID string   `json:"-"`
}

// Model describes one entry reported by the runtime's tag listing.
type Model struct {
	Name          string
	Size          int64
	Family        string
	ParameterSize string
	Quantization  string
}

// ModelOptions carries the per-connection generation knobs passed through to
// the runtime with every request.
type ModelOptions struct {
	Temperature float64
	NumCtx      int
	NumGPU      int
	Mirostat    int
}

// APIError represents a structured error response from the runtime.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

func isRetryableNetErr(err error) bool {
	// net errors like timeouts
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return true
		}
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 200 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

// decodeAPIError reads a non-2xx response body and classifies it.
func decodeAPIError(resp *http.Response, body map[string]any) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: body}
	if msg, ok := body["error"].(string); ok {
		apiErr.Message = msg
	}
	if msg, ok := body["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ModelNotFoundError{APIError: apiErr}
	case resp.StatusCode >= 500:
		return &ServerError{APIError: apiErr}
	case resp.StatusCode == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	}
	return apiErr
}
