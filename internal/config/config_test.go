package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, "history.json", filepath.Base(cfg.History.Path))
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, "word", cfg.OCR.Level)
	assert.True(t, cfg.OCR.Preprocess)
	assert.Equal(t, 0.5, cfg.Grouping.LineOverlap)
	assert.Equal(t, 1.5, cfg.Grouping.GapFactor)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
history:
  path: /tmp/h.json
  limit: 10
ocr:
  languages: [eng, deu]
  level: line
grouping:
  gap_factor: 2.0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/h.json", cfg.History.Path)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, []string{"eng", "deu"}, cfg.OCR.Languages)
	assert.Equal(t, "line", cfg.OCR.Level)
	assert.Equal(t, 2.0, cfg.Grouping.GapFactor)
	assert.Equal(t, 0.5, cfg.Grouping.LineOverlap)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("IMAGE_TEXT_MCP_LOG_LEVEL", "warn")
	t.Setenv("IMAGE_TEXT_MCP_HISTORY_LIMIT", "7")
	t.Setenv("IMAGE_TEXT_MCP_BATCH_WORKERS", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7, cfg.History.Limit)
	assert.Equal(t, 2, cfg.Batch.Workers)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero limit", "history:\n  limit: 0\n"},
		{"bad level", "ocr:\n  level: paragraph\n"},
		{"no workers", "batch:\n  workers: 0\n"},
		{"negative gap", "grouping:\n  gap_factor: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
