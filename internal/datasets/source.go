package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"usdataexplorer/internal/config"
	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/files"
	"usdataexplorer/internal/validation"
	"usdataexplorer/pkg/contracts"
)

// ErrTooLarge is returned while reading a source past its size limit
var ErrTooLarge = errors.New("source exceeds size limit")

// Source opens the raw CSV text of a dataset file
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Location describes where name is read from, for logs and status
	Location(name string) string
}

// NewSource builds the source selected by cfg.Source
func NewSource(cfg config.DatasetsConfig, manager *files.Manager, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case "file", "":
		return NewFileSource(manager, validation.NewFileValidator(logger, cfg.MaxFileSize)), nil
	case "http":
		return NewHTTPSource(cfg.BaseURL, cfg.FetchTimeout, cfg.FetchRPS, cfg.MaxFileSize, logger), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported dataset source %q", cfg.Source), nil)
	}
}

// FileSource reads datasets from the data directory
type FileSource struct {
	manager   *files.Manager
	validator *validation.FileValidator
}

// NewFileSource creates a source over the manager's data directory
func NewFileSource(manager *files.Manager, validator *validation.FileValidator) *FileSource {
	return &FileSource{manager: manager, validator: validator}
}

// Location returns the absolute path of name
func (s *FileSource) Location(name string) string {
	return s.manager.DataPath(name)
}

// Open validates and opens name
func (s *FileSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.manager.DataPath(name)
	if _, err := s.validator.ValidateCSVFile(path); err != nil {
		return nil, apperrors.NewStorageError("source file rejected", err).WithContext("file", name)
	}

	f, err := s.manager.Open(name)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open source file", err).WithContext("file", name)
	}
	return f, nil
}

// HTTPSource fetches datasets from a base URL, one request at a time per
// limiter token
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	maxSize int64
	logger  *slog.Logger
}

// NewHTTPSource creates a rate limited HTTP source. A non-positive rps
// disables the limiter.
func NewHTTPSource(baseURL string, timeout time.Duration, rps float64, maxSize int64, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "http_source")),
	}
}

// Location returns the URL of name
func (s *HTTPSource) Location(name string) string {
	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return s.baseURL + "/" + name
	}
	return u
}

// Open fetches name. The body is capped at the configured size limit.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewNetworkError("fetch cancelled", err).WithContext("file", name)
	}

	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid dataset base url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build request", err).WithContext("url", u)
	}
	req.Header.Set("User-Agent", config.AppName+"/"+contracts.Version)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch failed", err).WithContext("url", u)
	}

	s.logger.DebugContext(ctx, "Fetched dataset",
		slog.String("url", u),
		slog.Int("status", resp.StatusCode),
		slog.Int64("content_length", resp.ContentLength),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apperrors.NewNetworkError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).
			WithContext("url", u).
			WithContext("status", resp.StatusCode)
	}

	if s.maxSize > 0 {
		if resp.ContentLength > s.maxSize {
			resp.Body.Close()
			return nil, apperrors.NewNetworkError("source too large", ErrTooLarge).
				WithContext("url", u).
				WithContext("content_length", resp.ContentLength)
		}
		return &cappedBody{body: resp.Body, left: s.maxSize}, nil
	}
	return resp.Body, nil
}

// cappedBody fails with ErrTooLarge once more than left bytes are read
type cappedBody struct {
	body io.ReadCloser
	left int64
}

func (c *cappedBody) Read(p []byte) (int, error) {
	if c.left <= 0 {
		var probe [1]byte
		n, err := c.body.Read(probe[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.body.Read(p)
	c.left -= int64(n)
	return n, err
}

func (c *cappedBody) Close() error {
	return c.body.Close()
}
