package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:5173", cfg.Server.AllowOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "checkers.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, render.DefaultCellSize, cfg.Render.CellSize)
	assert.Equal(t, render.DefaultTheme, cfg.Render.Theme)
	assert.Equal(t, time.Second, cfg.Matchmaking.Interval)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := `{
		"server": { "addr": ":8080" },
		"log": { "level": "debug", "pretty": true },
		"storage": { "type": "sqlite", "sqlite": { "path": "/tmp/games.db" } },
		"render": { "cellSize": 48, "theme": { "player1": "#ffffff" } },
		"matchmaking": { "interval": "250ms" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkers.json"), []byte(file), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "/tmp/games.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 48, cfg.Render.CellSize)
	assert.Equal(t, "#ffffff", cfg.Render.Theme.Player1)
	assert.Equal(t, render.DefaultTheme.Player2, cfg.Render.Theme.Player2)
	assert.Equal(t, 250*time.Millisecond, cfg.Matchmaking.Interval)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CHECKERS_SERVER_ADDR", ":9999")
	t.Setenv("CHECKERS_STORAGE_TYPE", "postgres")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Type)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkers.json"), []byte(`{"server":`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidStorageType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkers.json"), []byte(`{"storage":{"type":"redis"}}`), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
