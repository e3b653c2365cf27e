package measure_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"measure"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MEASURE_DB_PATH", "/tmp/units.db")
	t.Setenv("MEASURE_DEFINITIONS", "/etc/units.yaml")
	t.Setenv("MEASURE_LOG_LEVEL", "debug")
	t.Setenv("MEASURE_LINK_UNITS", "false")
	t.Setenv("MEASURE_LISTEN_ADDR", ":9000")

	cfg, err := measure.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/units.db", cfg.DBPath)
	assert.Equal(t, "/etc/units.yaml", cfg.DefinitionsFile)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.False(t, cfg.LinkUnits)
	assert.Equal(t, ":9000", cfg.ListenAddr)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := measure.LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LinkUnits)
	assert.Equal(t, "127.0.0.1:7411", cfg.ListenAddr)
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	t.Setenv("MEASURE_LINK_UNITS", "maybe")
	_, err = measure.LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestConfigLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for level, want := range tests {
		assert.Equal(t, want, measure.Config{LogLevel: level}.Level(), level)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	dir := t.TempDir()
	defs := filepath.Join(dir, "units.yaml")
	require.NoError(t, os.WriteFile(defs, []byte("definitions:\n  - name: smoot\n    category: \"[length]\"\n    scale: 1.7018\n"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := measure.Config{DBPath: filepath.Join(dir, "units.db"), DefinitionsFile: defs, LinkUnits: true}
	r, err := measure.NewRegistryFromConfig(cfg, logger)
	require.NoError(t, err)
	defer r.Close()

	q, err := r.Quantity(10, "smoot")
	require.NoError(t, err)
	m, err := q.ToName("m")
	require.NoError(t, err)
	assert.InDelta(t, 17.018, m.Magnitude, 1e-9)

	unlinked, err := measure.NewRegistryFromConfig(measure.Config{}, logger)
	require.NoError(t, err)
	defer unlinked.Close()
	assert.Equal(t, uuid.Nil, unlinked.Meter().RegistryID())

	_, err = measure.NewRegistryFromConfig(measure.Config{DefinitionsFile: filepath.Join(dir, "missing.yaml")}, logger)
	assert.Error(t, err)
}
