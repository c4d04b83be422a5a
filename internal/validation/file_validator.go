package validation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"usdataexplorer/internal/tabular"
)

// ErrEmptyFile is returned for a source file with no header row
var ErrEmptyFile = errors.New("file has no header row")

// FileValidator checks source CSV files before they are parsed
type FileValidator struct {
	logger  *slog.Logger
	maxSize int64
}

// NewFileValidator creates a new file validator. A maxSize of 0 disables the
// size check.
func NewFileValidator(logger *slog.Logger, maxSize int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:  logger.With(slog.String("component", "validation")),
		maxSize: maxSize,
	}
}

// ValidateFile checks that path exists, is a regular file and is readable
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return nil, fmt.Errorf("file %s does not exist: %w", path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	return info, nil
}

// ValidateCSVFile checks extension, size and that a header row is present.
// It returns the header columns.
func (v *FileValidator) ValidateCSVFile(path string) ([]string, error) {
	info, err := v.ValidateFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		v.logger.Error("File is not a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return nil, fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}

	if v.maxSize > 0 && info.Size() > v.maxSize {
		v.logger.Error("File exceeds size limit",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("max_size", v.maxSize))
		return nil, fmt.Errorf("file %s is %s, limit is %s", path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(v.maxSize)))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()

	headers, err := ReadHeader(f)
	if err != nil {
		v.logger.Error("Invalid CSV header",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("file %s: %w", path, err)
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()),
		slog.Int("columns", len(headers)))
	return headers, nil
}

// ReadHeader returns the columns of the first non-blank line of r
func ReadHeader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		return tabular.SplitLine(line), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return nil, ErrEmptyFile
}

// MissingColumns returns the required columns absent from headers, in the
// order they were required
func MissingColumns(headers []string, required ...string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
