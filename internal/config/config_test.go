package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("HAKAWATI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HAKAWATI_STORAGE_DRIVER", "")

	cfg, err := Load(writeConfig(t, "server:\n  host: 0.0.0.0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "./data/store", cfg.Storage.Dir)
	assert.Equal(t, "openai", cfg.AI.Image.Provider)
	assert.Equal(t, "16:9", cfg.Defaults.AspectRatio)
	assert.Equal(t, 5, cfg.Defaults.SceneCount)
	assert.Equal(t, "/media", cfg.Media.URLPrefix)
	assert.Equal(t, 300*time.Second, cfg.AI.Image.Timeout)
	assert.Equal(t, 2, cfg.AI.Image.MaxConcurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HAKAWATI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HAKAWATI_STORAGE_DRIVER", "memory")

	cfg, err := Load(writeConfig(t, "ai:\n  text:\n    model: gpt-4o\n    timeout: 10s\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.Text.APIKey)
	assert.Equal(t, "sk-test", cfg.AI.Image.APIKey)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "gpt-4o", cfg.AI.Text.Model)
	assert.Equal(t, 10*time.Second, cfg.AI.Text.Timeout)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("HAKAWATI_STORAGE_DRIVER", "")

	_, err := Load(writeConfig(t, "storage:\n  driver: sqlite\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
