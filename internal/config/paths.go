package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute directories used by the application
type Paths struct {
	BaseDir   string
	DataDir   string
	WebDir    string
	LogsDir   string
	ExportDir string
}

// ResolvePaths makes every configured directory absolute
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:   base,
		DataDir:   resolve(c.Paths.DataDir),
		WebDir:    resolve(c.Paths.WebDir),
		LogsDir:   resolve(c.Paths.LogsDir),
		ExportDir: resolve(c.Paths.ExportDir),
	}, nil
}

// EnsureDirectories creates the writable directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DataFile returns the path of a source file in the data directory
func (p *Paths) DataFile(name string) string {
	return filepath.Join(p.DataDir, name)
}

// ExportFile returns the path of an export file
func (p *Paths) ExportFile(name string) string {
	return filepath.Join(p.ExportDir, name)
}

// LogPathResolution logs the resolved directories at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("web_dir", p.WebDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("export_dir", p.ExportDir))
}

// FileExists reports whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
