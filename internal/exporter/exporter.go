package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"usdataexplorer/internal/config"
	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/files"
	"usdataexplorer/internal/infrastructure"
)

// Result describes a finished export
type Result struct {
	Format   Format `json:"format"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

// Exporter writes tables in any supported format
type Exporter struct {
	manager *files.Manager
	cfg     config.ExportConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
}

// New creates an exporter. metrics may be nil.
func New(manager *files.Manager, cfg config.ExportConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Exporter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Exporter{
		manager: manager,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "exporter")),
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.InstrumentationName),
	}
}

// WriterFor returns the stream writer of a file format
func WriterFor(format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(true), nil
	case FormatXLSX:
		return &XLSXWriter{}, nil
	case FormatJSON:
		return &JSONWriter{Indent: true}, nil
	}
	return nil, fmt.Errorf("%s is not a file format", format)
}

// Render streams t to w, for HTTP downloads. Only file formats are accepted.
func (e *Exporter) Render(ctx context.Context, w io.Writer, format Format, t Table) error {
	writer, err := WriterFor(format)
	if err == nil {
		err = writer.Write(w, t)
	}
	infrastructure.RecordExport(ctx, e.metrics, string(format), err)
	if err != nil {
		return apperrors.NewExportError(string(format), err)
	}
	return nil
}

// Export writes t to the export directory, or to the configured database
// for SQL formats. name is the file or table name without extension.
func (e *Exporter) Export(ctx context.Context, format Format, name string, t Table) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "exporter.export",
		trace.WithAttributes(
			attribute.String("format", string(format)),
			attribute.String("name", name),
			attribute.Int("rows", len(t.Rows)),
		))
	defer span.End()

	logger := infrastructure.LoggerWithContext(ctx).With(slog.String("component", "exporter"))

	var (
		res Result
		err error
	)
	switch {
	case format.IsFile():
		res, err = e.exportFile(format, name, t)
	case format == FormatSQLite || format == FormatPostgres:
		res, err = e.exportSQL(ctx, format, name, t)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}

	infrastructure.RecordExport(ctx, e.metrics, string(format), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "Export failed",
			slog.String("format", string(format)),
			slog.String("name", name),
			slog.String("error", err.Error()))
		return Result{}, apperrors.NewExportError(string(format), err).WithContext("name", name)
	}

	logger.InfoContext(ctx, "Export written",
		slog.String("format", string(format)),
		slog.String("location", res.Location),
		slog.Int("rows", res.Rows))
	return res, nil
}

func (e *Exporter) exportFile(format Format, name string, t Table) (Result, error) {
	writer, err := WriterFor(format)
	if err != nil {
		return Result{}, err
	}

	out, path, err := e.manager.CreateExport(name + format.Extension())
	if err != nil {
		return Result{}, err
	}
	if err := writer.Write(out, t); err != nil {
		files.Abort(out)
		return Result{}, err
	}
	if err := out.Close(); err != nil {
		return Result{}, err
	}
	return Result{Format: format, Location: path, Rows: len(t.Rows)}, nil
}

func (e *Exporter) exportSQL(ctx context.Context, format Format, name string, t Table) (Result, error) {
	driver, dsn := DriverSQLite, e.cfg.DSN
	location := dsn
	if format == FormatPostgres {
		driver = DriverPostgres
		if dsn == "" || e.cfg.SQLDriver != DriverPostgres {
			return Result{}, fmt.Errorf("postgres export needs export.sql_driver=postgres and export.dsn")
		}
		// The DSN may carry a password.
		location = "postgres"
	} else if dsn == "" || e.cfg.SQLDriver != DriverSQLite {
		// Without a SQLite DSN of its own the database lives in the export dir.
		location = e.manager.ExportPath(name + format.Extension())
		if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
			return Result{}, fmt.Errorf("failed to create export directory: %w", err)
		}
		dsn = location
	}

	table := e.cfg.Table
	if table == "" {
		table = name
	}

	db, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	rows, err := NewSQLWriter(db, driver, table).Write(ctx, t)
	if err != nil {
		return Result{}, err
	}
	return Result{Format: format, Location: location + "#" + table, Rows: rows}, nil
}
