package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdataexplorer/internal/config"
	"usdataexplorer/internal/shared/testutil"
)

func newTestManager(t *testing.T) (*Manager, *config.Paths) {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{
		BaseDir:   base,
		DataDir:   filepath.Join(base, "data"),
		ExportDir: filepath.Join(base, "exports"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0o755))

	logger, _ := testutil.NewTestLogger(t)
	return NewManager(paths, logger), paths
}

func TestManager_Paths(t *testing.T) {
	m, paths := newTestManager(t)

	tests := []struct {
		name     string
		resolve  func(string) string
		in       string
		expected string
	}{
		{"relative data file", m.DataPath, "ev.csv", filepath.Join(paths.DataDir, "ev.csv")},
		{"absolute data file", m.DataPath, "/srv/ev.csv", "/srv/ev.csv"},
		{"relative export", m.ExportPath, "out.xlsx", filepath.Join(paths.ExportDir, "out.xlsx")},
		{"absolute export", m.ExportPath, "/tmp/out.xlsx", "/tmp/out.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resolve(tt.in))
		})
	}
}

func TestManager_OpenAndStat(t *testing.T) {
	m, paths := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "border.csv"), []byte(testutil.BorderCSV), 0o644))

	assert.True(t, m.FileExists("border.csv"))
	assert.False(t, m.FileExists("missing.csv"))

	size, err := m.GetFileSize("border.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(testutil.BorderCSV)), size)

	f, err := m.Open("border.csv")
	require.NoError(t, err)
	f.Close()

	_, err = m.Open("missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManager_CreateExport(t *testing.T) {
	m, paths := newTestManager(t)

	w, path, err := m.CreateExport("ev/by-make.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ExportDir, "ev", "by-make.csv"), path)

	_, err = w.Write([]byte("make,count\nTESLA,3\n"))
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "target must not exist before Close")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "make,count\nTESLA,3\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestManager_AbortExport(t *testing.T) {
	m, paths := newTestManager(t)
	target := filepath.Join(paths.ExportDir, "keep.csv")
	require.NoError(t, os.MkdirAll(paths.ExportDir, 0o755))
	require.NoError(t, os.WriteFile(target, []byte("previous"), 0o644))

	w, _, err := m.CreateExport("keep.csv")
	require.NoError(t, err)
	_, _ = w.Write([]byte("partial"))
	Abort(w)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))

	entries, err := os.ReadDir(paths.ExportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
