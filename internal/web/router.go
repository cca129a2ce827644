// Package web is the HTTP application: a thin httprouter wrapper with JSON
// envelopes, the upload/ask/health endpoints, and the embedded single-page UI.
// Handlers return payloads or typed errors; the codecs own the wire shape.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Handler is the application-style handler used by this router. The returned
// payload goes out under the data envelope; an error is mapped onto the error
// envelope with a status derived from its type.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Middleware wraps an http.Handler, typically to add cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order, returning the final wrapped handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ErrorCodec writes a handler error as the error envelope.
type ErrorCodec func(w http.ResponseWriter, err error)

// Router is an http.Handler wrapping httprouter with the envelope codecs and
// the standard middleware chain.
type Router struct {
	hr       *httprouter.Router
	errCodec ErrorCodec
	mws      []Middleware
}

// NewRouter builds the application router with panic recovery, request ID
// propagation, and request logging installed.
func NewRouter(log *zap.Logger, errCodec ErrorCodec, gen Generator) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", "endpoint not found")
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		}),
	}

	return &Router{
		hr:       hr,
		errCodec: errCodec,
		mws: []Middleware{
			recoverer(log),
			requestID(gen),
			requestLog(log),
		},
	}
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler) { r.endpoint(http.MethodGet, path, h) }

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler) { r.endpoint(http.MethodPost, path, h) }

// Handle registers a raw http.Handler behind the shared middleware chain.
func (r *Router) Handle(method, path string, h http.Handler) {
	r.hr.Handler(method, path, Chain(h, r.mws...))
}

func (r *Router) endpoint(method, path string, h Handler) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(req.Context(), req)
		if err != nil {
			r.errCodec(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dataEnvelope{Data: resp})
	}), r.mws...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	// The payloads are our own structs; an encode failure here means the
	// connection is gone and there is nothing left to tell the client.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Message: message, Code: code}})
}
