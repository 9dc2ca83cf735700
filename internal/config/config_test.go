package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/tabdeck/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, cfg.Session.IdleCeilingSeconds, 30)
	assert.Equal(t, cfg.IdleCeiling(), 30*time.Second)
	assert.Equal(t, cfg.Readiness.BaseDelayMS, 20)
	assert.Equal(t, cfg.Readiness.MaxAttempts, 5)
	assert.Equal(t, cfg.Store.Backend, "")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, config.Default())
}

func TestLoad_OverridesLayerOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[store]
backend = "sqlite"
path = "/tmp/bookmarks.db"

[session]
idle_ceiling_seconds = 60

[log]
path = "/tmp/tabdeck.log"
`
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Store.Backend, "sqlite")
	assert.Equal(t, cfg.Store.Path, "/tmp/bookmarks.db")
	assert.Equal(t, cfg.IdleCeiling(), time.Minute)
	assert.Equal(t, cfg.Log.Path, "/tmp/tabdeck.log")

	// Untouched sections keep their defaults.
	assert.Equal(t, cfg.Readiness.BaseDelayMS, 20)
	assert.Equal(t, cfg.Readiness.MaxAttempts, 5)
}

func TestLoad_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NilError(t, os.WriteFile(path, []byte("store = {"), 0644))

	_, err := config.Load(path)
	assert.Assert(t, err != nil)
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := config.DefaultConfigPath()
	assert.NilError(t, err)
	assert.Equal(t, filepath.Base(path), "config.toml")
	assert.Equal(t, filepath.Base(filepath.Dir(path)), "tabdeck")
}
