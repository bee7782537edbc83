package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Pipeline.SampleSize)
	assert.Equal(t, 10, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, "user_total_checkin.csv", cfg.Pipeline.CheckInsFile)
	assert.Equal(t, "data/users.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geosocial.yaml")
	doc := `
pipeline:
  sampleSize: 25
  seed: 42
  dataDir: /tmp/geo
http:
  port: 9090
  readTimeout: 3s
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("SAMPLE_SIZE", "30")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Pipeline.SampleSize, "env overrides file")
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, "/tmp/geo", cfg.Pipeline.DataDir)
	assert.Equal(t, "user_edges.csv", cfg.Pipeline.EdgesFile, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFile_MaxAttemptsIsFixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geosocial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  maxAttempts: 3\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Pipeline.MaxAttempts)
}

func TestLoadFile_ValidationFailure(t *testing.T) {
	t.Setenv("SAMPLE_SIZE", "0")

	_, err := LoadFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SampleSize")
}

func TestLoadFile_BadEnvValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestLoad_UsesConfigFileEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geosocial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: /var/lib/geo/users.db\n"), 0o600))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/geo/users.db", cfg.Store.Path)
}
