package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "usdataexplorer/internal/errors"
)

// DefaultMaxBodySize bounds JSON request bodies
const DefaultMaxBodySize = 1 << 20

// ValidationMiddleware rejects oversized or malformed JSON bodies before they
// reach handlers. Field validation happens in the services layer.
type ValidationMiddleware struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a new validation middleware. A
// non-positive maxBodySize uses DefaultMaxBodySize.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxBodySize int64) *ValidationMiddleware {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &ValidationMiddleware{
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  maxBodySize,
	}
}

// ValidateRequest checks the body size and that a present body is valid JSON
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, tooLarge(m.maxBodySize, r.ContentLength))
			return
		}

		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}

		// Chunked bodies have no length; read one byte past the cap to detect them
		body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize+1))
		if err != nil {
			m.logger.ErrorContext(r.Context(), "failed to read request body",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(r.Context())))
			m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if int64(len(body)) > m.maxBodySize {
			m.errorHandler.HandleError(w, r, tooLarge(m.maxBodySize, int64(len(body))))
			return
		}
		if len(body) > 0 && !json.Valid(body) {
			m.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				apierrors.CodeInvalidJSON,
				"Request body contains invalid JSON",
			))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(max, size int64) *apierrors.APIError {
	return apierrors.NewWithDetails(
		http.StatusRequestEntityTooLarge,
		apierrors.CodePayloadTooLarge,
		"Request body exceeds maximum allowed size",
		map[string]interface{}{"max_size": max, "size": size},
	)
}

// ContentTypeValidator ensures requests with bodies declare one of
// contentTypes
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead ||
				r.Method == http.MethodDelete || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				errorHandler.HandleError(w, r, apierrors.New(
					http.StatusBadRequest,
					apierrors.CodeMissingContentType,
					"Content-Type header is required",
				))
				return
			}

			for _, allowed := range contentTypes {
				if strings.HasPrefix(strings.ToLower(contentType), allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}
			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedMediaType,
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// ErrInvalidParam is returned by the QueryParamValidator parsers
var ErrInvalidParam = errors.New("invalid parameter")

// QueryParamValidator validates query parameters and reports failures
// through the error handler. The bool result is false once a response has
// been written.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ParseInt parses value as an integer in [min, max]; empty gives defaultValue
func ParseInt(value string, min, max, defaultValue int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: must be a valid integer", ErrInvalidParam)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: must be between %d and %d", ErrInvalidParam, min, max)
	}
	return n, nil
}

// ValidateInt validates an integer query parameter
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	return v.validateInt(w, r, param, r.URL.Query().Get(param), min, max, defaultValue)
}

// ValidatePathInt validates an integer URL parameter that has already been
// extracted by the router
func (v *QueryParamValidator) ValidatePathInt(w http.ResponseWriter, r *http.Request, param, value string, min, max int) (int, bool) {
	return v.validateInt(w, r, param, value, min, max, 0)
}

func (v *QueryParamValidator) validateInt(w http.ResponseWriter, r *http.Request, param, value string, min, max, defaultValue int) (int, bool) {
	n, err := ParseInt(value, min, max, defaultValue)
	if err != nil {
		msg := param + strings.TrimPrefix(err.Error(), ErrInvalidParam.Error()+":")
		v.logger.DebugContext(r.Context(), "invalid integer parameter",
			slog.String("param", param),
			slog.String("value", value))
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, msg))
		return 0, false
	}
	return n, true
}

// ValidateFloat validates a float query parameter in [min, max]
func (v *QueryParamValidator) ValidateFloat(w http.ResponseWriter, r *http.Request, param string, min, max float64) (float64, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	if value == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < min || f > max {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param,
			fmt.Sprintf("%s must be a number between %g and %g", param, min, max)))
		return 0, false
	}
	return f, true
}

// ValidateEnum validates an enum query parameter
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a, true
		}
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
