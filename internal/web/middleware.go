package web

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces request IDs when the caller did not send one.
type Generator interface {
	Generate() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

const (
	// HeaderRequestID carries the request ID in and out.
	HeaderRequestID = "X-Request-ID"
	// HeaderCorrelationID is an accepted alternative some proxies send.
	HeaderCorrelationID = "X-Correlation-ID"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID reads the request ID stored by the middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func normalizeID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return ""
	}
	const maxLen = 128
	if len(v) > maxLen {
		v = v[:maxLen]
	}
	return v
}

// requestID echoes the caller's ID (either header) and generates one when
// absent, storing it on the context for the request log.
func requestID(gen Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := normalizeID(r.Header.Get(HeaderRequestID))
			if id == "" {
				id = normalizeID(r.Header.Get(HeaderCorrelationID))
			}
			if id == "" && gen != nil {
				id = gen.Generate()
			}
			if id != "" {
				w.Header().Set(HeaderRequestID, id)
				r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recoverer(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					//nolint:errorlint // ErrAbortHandler must be compared directly
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.Error("panic serving request",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()))
					writeError(w, http.StatusInternalServerError, "internal", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// statusWriter records the status code the handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestLog(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestID(r.Context())))
		})
	}
}
