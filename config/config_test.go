package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/on-the-ground/fiber_ive_go/config"
	"github.com/on-the-ground/fiber_ive_go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`
runtime:
  scheduler: partitioned
  num_workers: 4
  registry: true
log:
  level: debug
  encoding: console
`), "fiber.yaml")
	require.NoError(t, err)

	rc := cfg.RuntimeConfig()
	assert.Equal(t, model.SchedulerPartitioned, rc.Scheduler)
	assert.Equal(t, 4, rc.NumWorkers)
	assert.Equal(t, 1, rc.BufferSize)
	assert.True(t, rc.Registry)
	assert.Equal(t, model.LogConfig{Level: "debug", Encoding: "console"}, cfg.LogConfig())
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := config.ParseConfig([]byte("{}"), "fiber.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "single", cfg.Runtime.Scheduler)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
}

func TestParseConfig_Invalid(t *testing.T) {
	for name, data := range map[string]string{
		"scheduler": "runtime: {scheduler: round-robin}",
		"manual":    "runtime: {scheduler: manual}",
		"buffer":    "runtime: {buffer_size: -1}",
		"workers":   "runtime: {scheduler: single, num_workers: 3}",
		"level":     "log: {level: loud}",
		"encoding":  "log: {encoding: xml}",
		"yaml":      "runtime: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseConfig([]byte(data), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestFindAndLoadConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := config.FindConfig(nested)
	require.NoError(t, err)
	if path != "" {
		t.Skipf("found an unrelated config above the temp dir: %s", path)
	}

	want := filepath.Join(root, "fiber.yml")
	require.NoError(t, os.WriteFile(want, []byte("runtime: {num_workers: 2}\n"), 0o644))

	path, err = config.FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "partitioned", cfg.Runtime.Scheduler)

	_, err = config.LoadConfig(filepath.Join(root, "missing.yaml"))
	assert.Error(t, err)
}
