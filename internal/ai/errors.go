package ai

import "fmt"

// ModelNotFoundError indicates the requested model is not available on the
// runtime, usually because it has not been pulled.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found (pull it first): %s", e.APIError.Error())
}

// BadRequestError indicates a 4xx request problem (e.g., 400 validation).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the runtime.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("runtime error: %s", e.APIError.Error()) }

// UnreachableError indicates the local runtime is not reachable, typically
// because `ollama serve` is not running on the configured host.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ConnectionFailedMessage is the user-visible banner shown when the runtime
// cannot be reached at all.
func ConnectionFailedMessage(model string) string {
	return fmt.Sprintf("🛑 Ollama Connection Failed. Ensure 'ollama serve' is running and you have pulled the '%s' model.", model)
}
