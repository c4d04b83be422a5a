package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"usdataexplorer/internal/config"
)

// Manager resolves and opens files under the configured data and export
// directories
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger.With(slog.String("component", "files"))}
}

// DataPath resolves name against the data directory unless it is absolute
func (m *Manager) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return m.paths.DataFile(name)
}

// ExportPath resolves name against the export directory unless it is absolute
func (m *Manager) ExportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return m.paths.ExportFile(name)
}

// FileExists checks if a data file exists
func (m *Manager) FileExists(name string) bool {
	path := m.DataPath(name)
	_, err := os.Stat(path)
	exists := err == nil

	m.logger.Debug("FileExists check",
		slog.String("name", name),
		slog.String("full_path", path),
		slog.Bool("exists", exists))

	return exists
}

// GetFileSize returns the size of a data file in bytes
func (m *Manager) GetFileSize(name string) (int64, error) {
	info, err := os.Stat(m.DataPath(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Open opens a data file for reading
func (m *Manager) Open(name string) (*os.File, error) {
	path := m.DataPath(name)
	m.logger.Debug("Opening data file", slog.String("full_path", path))
	return os.Open(path)
}

// atomicFile writes to a temp file that replaces the target on Close
type atomicFile struct {
	*os.File
	target string
	closed bool
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if err := f.File.Sync(); err != nil {
		f.File.Close()
		os.Remove(f.File.Name())
		return fmt.Errorf("failed to sync %s: %w", f.target, err)
	}
	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return fmt.Errorf("failed to close %s: %w", f.target, err)
	}
	if err := os.Rename(f.File.Name(), f.target); err != nil {
		os.Remove(f.File.Name())
		return fmt.Errorf("failed to move %s into place: %w", f.target, err)
	}
	return nil
}

// CreateExport opens an export file for writing. Data lands in a temp file
// next to the target and only replaces it when the writer is closed, so a
// failed export never leaves a truncated file behind.
func (m *Manager) CreateExport(name string) (io.WriteCloser, string, error) {
	path := m.ExportPath(name)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create export file: %w", err)
	}

	m.logger.Info("Writing export",
		slog.String("name", name),
		slog.String("full_path", path))

	return &atomicFile{File: tmp, target: path}, path, nil
}

// Abort discards an export opened with CreateExport without replacing the
// target
func Abort(w io.WriteCloser) {
	if f, ok := w.(*atomicFile); ok && !f.closed {
		f.closed = true
		f.File.Close()
		os.Remove(f.File.Name())
	}
}
