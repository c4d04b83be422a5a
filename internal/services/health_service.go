package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"usdataexplorer/internal/datasets"
	"usdataexplorer/pkg/contracts"
	"usdataexplorer/pkg/contracts/events"
)

// StatusSource reports dataset load state
type StatusSource interface {
	Status() []datasets.Status
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	store     StatusSource
	hub       ClientCounter
	dataDir   string
	source    string
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. source is the dataset source
// kind; the data directory is only checked for the "file" source. hub may
// be nil.
func NewHealthService(store StatusSource, hub ClientCounter, dataDir, source string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		source = "file"
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("data_dir", dataDir),
		slog.String("source", source))

	return &HealthService{
		store:     store,
		hub:       hub,
		dataDir:   dataDir,
		source:    source,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck returns readiness status. A dataset that has never been
// requested does not block readiness; one whose last load failed does.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"datasets":  hs.checkDatasetHealth(),
			"data":      hs.checkDataHealth(),
			"websocket": hs.checkWebSocketHealth(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "Readiness check failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "dataset cache not initialized"}
	}

	loaded := 0
	for _, st := range hs.store.Status() {
		switch st.State {
		case events.DatasetFailed:
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("Dataset %s failed to load: %s", st.Key, st.Error),
			}
		case events.DatasetReady:
			loaded++
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d datasets loaded", loaded),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.source != "file" {
		return ServiceHealth{Status: "ready", Message: "Datasets are fetched over " + hs.source}
	}
	info, err := os.Stat(hs.dataDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Data directory not found: %s", hs.dataDir),
		}
	}
	return ServiceHealth{Status: "ready", Message: "Data directory is readable"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "WebSocket hub disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
