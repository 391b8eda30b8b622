package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Navigation.MaxSteps)
	assert.Equal(t, 10, cfg.Navigation.SearchLimit)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "stategraph:session:", cfg.Redis.Prefix)
	assert.Equal(t, config.TransportStdio, cfg.MCP.Transport)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
navigation:
  max_steps: 4
store:
  backend: file
  dir: /tmp/sessions
redis:
  ttl: 90s
`), 0o644))
	t.Setenv("STATEGRAPH_NAVIGATION_SEARCH_LIMIT", "3")
	t.Setenv("STATEGRAPH_STORE_BACKEND", "redis")

	cfg, err := config.Load(config.New(), path, "")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Navigation.MaxSteps)
	assert.Equal(t, 3, cfg.Navigation.SearchLimit)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend, "env wins over file")
	assert.Equal(t, "/tmp/sessions", cfg.Store.Dir)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
}

func TestLoad_SearchPaths(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".stategraph"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".stategraph", "stategraph.yaml"),
		[]byte("log:\n  level: debug\n"), 0o644))
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.New(), "", home)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err, "an explicit file must exist")

	t.Chdir(t.TempDir())
	t.Setenv("STATEGRAPH_STORE_BACKEND", "etcd")
	_, err = config.Load(config.New(), "", "")
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "store.backend", cfgErr.Field)
}
