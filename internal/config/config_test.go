package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navsurf", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().MaxEntries, cfg.MaxEntries)
	assert.Equal(t, path, cfg.Path())

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults should be saved")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","max_entries":20,"homepage":"http://example.com"}`), 0o644))

	t.Setenv("NAVSURF_MAX_ENTRIES", "7")
	t.Setenv("NAVSURF_WARN_INSECURE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxEntries)
	assert.False(t, cfg.WarnInsecure)
	assert.Equal(t, "dark", cfg.Theme, "unset variables keep file values")
	assert.Equal(t, "http://example.com", cfg.Homepage)
	assert.Equal(t, Default().PageCacheSize, cfg.PageCacheSize)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"theme":`), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	zero := filepath.Join(dir, "zero.json")
	require.NoError(t, os.WriteFile(zero, []byte(`{"max_entries":0}`), 0o644))
	_, err = Load(zero)
	assert.ErrorContains(t, err, "max_entries")
	assert.Equal(t, Default().MaxEntries, LoadOrDefault(zero).MaxEntries)

	t.Setenv("NAVSURF_PAGE_CACHE_SIZE", "lots")
	_, err = Load(filepath.Join(dir, "fresh.json"))
	assert.Error(t, err)
}

func TestResolveDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/navsurf-data"
	dir, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/navsurf-data", dir)

	if runtime.GOOS == "linux" {
		t.Setenv("XDG_DATA_HOME", "/xdg/data")
		cfg.DataDir = ""
		dir, err = cfg.ResolveDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/xdg/data/navsurf", dir)
	}
}
