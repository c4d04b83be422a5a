package errors

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	captureLimit = 1 << 20
	previewLimit = 500
)

// redactedFields are replaced before a request body is logged. Export
// requests may carry database connection strings.
var redactedFields = []string{"password", "token", "secret", "api_key", "apiKey", "dsn", "DSN"}

// ErrorMiddleware wraps the POST routes. It writes one log line per request
// and turns panics into problem responses. Bodies of failed requests are
// logged after redaction.
type ErrorMiddleware struct {
	handler *ErrorHandler
	logger  *slog.Logger
}

func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler: handler,
		logger:  logger.With(slog.String("component", "error_middleware")),
	}
}

func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		body := captureBody(r)
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				m.handler.HandlePanic(ww, r, rec)
			}
		}()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		attrs := accessAttrs(r, ww, time.Since(start))
		if status >= 400 && len(body) > 0 {
			attrs = append(attrs, slog.String("request_body", bodyPreview(body)))
		}
		m.logger.LogAttrs(r.Context(), levelForStatus(status), "http request", attrs...)
	})
}

// captureBody reads a small request body and puts a replayable copy back
func captureBody(r *http.Request) []byte {
	if r.Body == nil || r.ContentLength <= 0 || r.ContentLength >= captureLimit {
		return nil
	}
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func accessAttrs(r *http.Request, ww middleware.WrapResponseWriter, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", ww.Status()),
		slog.Duration("duration", elapsed),
		slog.Int("bytes", ww.BytesWritten()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}
	return attrs
}

func bodyPreview(body []byte) string {
	s := sanitizeRequestBody(string(body))
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}

// sanitizeRequestBody redacts top-level secret fields of a JSON object.
// Anything that is not a JSON object comes back unchanged.
func sanitizeRequestBody(body string) string {
	var fields map[string]interface{}
	if json.Unmarshal([]byte(body), &fields) != nil {
		return body
	}
	for _, name := range redactedFields {
		if _, ok := fields[name]; ok {
			fields[name] = "[REDACTED]"
		}
	}
	out, _ := json.Marshal(fields)
	return string(out)
}

// RecoveryMiddleware turns a panic anywhere below it into a 500 problem response
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
