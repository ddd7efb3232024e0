package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/contractiq/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add usage events", "add_usage_events"},
		{"Add-Usage-Events", "add_usage_events"},
		{"ADD_USAGE_EVENTS", "add_usage_events"},
		{"add__usage__events", "add_usage_events"},
		{"Index Analyses 2", "index_analyses_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "index usage events", "Speed up per-day usage grouping")
	require.NoError(t, err)

	assert.Len(t, mf.Version, len(versionLayout))
	assert.True(t, strings.HasSuffix(mf.UpPath, "_index_usage_events.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_index_usage_events.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: index usage events")
	assert.Contains(t, string(up), "Speed up per-day usage grouping")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	listed, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].HasDown)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_usage.up.sql":     {Data: []byte("--")},
		"000002_add_usage.down.sql":   {Data: []byte("--")},
		"000001_init.up.sql":          {Data: []byte("--")},
		"000001_init.down.sql":        {Data: []byte("--")},
		"000003_irreversible.up.sql":  {Data: []byte("--")},
		"README.md":                   {Data: []byte("docs")},
		"subdir.up.sql/placeholder":   {Data: []byte("--")},
		"000004_orphan_down.down.sql": {Data: []byte("--")},
	}

	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)

	assert.Equal(t, []MigrationInfo{
		{Name: "000001_init", HasDown: true},
		{Name: "000002_add_usage", HasDown: true},
		{Name: "000003_irreversible", HasDown: false},
	}, migrations)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbeddedMigrations_AreReversible(t *testing.T) {
	listed, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, listed)

	for _, m := range listed {
		assert.True(t, m.HasDown, "%s has no down migration", m.Name)
	}
}
