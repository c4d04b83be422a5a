package exporter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"usdataexplorer/internal/config"
	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/files"
	"usdataexplorer/internal/shared/testutil"
)

func newTestExporter(t *testing.T, cfg config.ExportConfig) (*Exporter, string, *testutil.BufferedSlogHandler) {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{BaseDir: base, ExportDir: filepath.Join(base, "exports")}
	logger, handler := testutil.NewTestLogger(t)
	return New(files.NewManager(paths, logger), cfg, logger, nil), paths.ExportDir, handler
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&XLSXWriter{}).Write(&buf, FromAggregate("ev by make", sampleResponse())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "ev by make", f.GetSheetName(0))
	rows, err := f.GetRows("ev by make")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Make", "total", "percent", "rows", "BEV", "BEV %", "PHEV", "PHEV %"}, rows[0])
	assert.Equal(t, "TOYOTA, INC", rows[2][0])
	assert.Equal(t, "2", rows[2][1])
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"", "Sheet1"},
		{"president/2020", "president_2020"},
		{"a[b]:c*d?", "a_b__c_d_"},
		{"a very long worksheet name that overflows", "a very long worksheet name that"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, sheetName(tt.in))
		})
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, FromAggregate("ev", sampleResponse())))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	assert.Equal(t, "TESLA", out[0]["Make"])
	assert.Equal(t, float64(3), out[0]["total"])
	assert.Equal(t, float64(60), out[0]["percent"])
	assert.Nil(t, out[0]["PHEV"])
	assert.Equal(t, float64(1), out[1]["PHEV"])
}

func TestJSONWriter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, Table{Headers: []string{"a"}}))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestExporter_FileFormats(t *testing.T) {
	exp, dir, handler := newTestExporter(t, config.ExportConfig{})
	table := FromAggregate("ev", sampleResponse())

	for _, format := range []Format{FormatCSV, FormatXLSX, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			res, err := exp.Export(context.Background(), format, "ev_by_make", table)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, "ev_by_make"+format.Extension()), res.Location)
			assert.Equal(t, 2, res.Rows)
			info, err := os.Stat(res.Location)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Export written")
}

func TestExporter_SQLite(t *testing.T) {
	exp, dir, _ := newTestExporter(t, config.ExportConfig{SQLDriver: DriverSQLite})
	table := FromAggregate("ev", sampleResponse())

	res, err := exp.Export(context.Background(), FormatSQLite, "ev_by_make", table)
	require.NoError(t, err)
	path := filepath.Join(dir, "ev_by_make.db")
	assert.Equal(t, path+"#ev_by_make", res.Location)

	// A second export replaces the table rather than appending.
	_, err = exp.Export(context.Background(), FormatSQLite, "ev_by_make", table)
	require.NoError(t, err)

	db, err := sql.Open(DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "ev_by_make"`).Scan(&count))
	assert.Equal(t, 2, count)

	var total float64
	var phev sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT "total", "PHEV" FROM "ev_by_make" WHERE "Make" = 'TESLA'`).Scan(&total, &phev))
	assert.Equal(t, float64(3), total)
	assert.False(t, phev.Valid)
}

func TestExporter_SQLiteConfiguredDSNAndTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "explorer.db")
	exp, _, _ := newTestExporter(t, config.ExportConfig{SQLDriver: DriverSQLite, DSN: dsn, Table: "aggregates"})

	res, err := exp.Export(context.Background(), FormatSQLite, "ignored", FromAggregate("ev", sampleResponse()))
	require.NoError(t, err)
	assert.Equal(t, dsn+"#aggregates", res.Location)

	db, err := sql.Open(DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM aggregates`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestExporter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.ExportConfig
		format Format
		table  Table
	}{
		{"postgres without dsn", config.ExportConfig{SQLDriver: DriverSQLite}, FormatPostgres, Table{Headers: []string{"a"}}},
		{"unknown format", config.ExportConfig{}, Format("pdf"), Table{}},
		{"sql table without columns", config.ExportConfig{}, FormatSQLite, Table{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, _, handler := newTestExporter(t, tt.cfg)
			_, err := exp.Export(context.Background(), tt.format, "out", tt.table)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeExport, appErr.Type)
			testutil.AssertLogContains(t, handler, slog.LevelError, "Export failed")
		})
	}
}

func TestExporter_Render(t *testing.T) {
	exp, _, _ := newTestExporter(t, config.ExportConfig{})

	var buf bytes.Buffer
	require.NoError(t, exp.Render(context.Background(), &buf, FormatCSV, FromAggregate("ev", sampleResponse())))
	assert.Contains(t, buf.String(), "TESLA,3,60.0,3")

	err := exp.Render(context.Background(), &buf, FormatSQLite, Table{})
	require.Error(t, err)
}
