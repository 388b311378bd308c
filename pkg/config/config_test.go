package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, Duration(2*time.Second), cfg.Scan.Timeout)
	assert.Equal(t, 256, cfg.Scan.MaxConcurrency)
	assert.Equal(t, 32, cfg.API.MaxConnections)
	assert.Equal(t, models.DefaultAcquisitionConfig(), cfg.Acquire)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_YAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "radar.yaml", `
log:
  level: debug
scan:
  timeout: 500ms
  db_path: /tmp/detectors.db
acquire:
  nb_frames: 3
  saving_directory: /data
urls:
  eiger: 10.0.0.5
`)

	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, LoadAndValidate(path, cfg))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, Duration(500*time.Millisecond), cfg.Scan.Timeout)
	assert.Equal(t, "/tmp/detectors.db", cfg.Scan.DBPath)
	assert.Equal(t, int64(3), cfg.Acquire.NbFrames)
	assert.Equal(t, "/data", cfg.Acquire.SavingDirectory)
	assert.Equal(t, 0.1, cfg.Acquire.ExposureTime)
	assert.Equal(t, "10.0.0.5", cfg.URLs["eiger"])
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "radar.json", `{"scan": {"timeout": 1000000000, "rate": 50}, "api": {"listen": ":8080"}}`)

	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, LoadAndValidate(path, cfg))

	assert.Equal(t, Duration(time.Second), cfg.Scan.Timeout)
	assert.InDelta(t, 50.0, cfg.Scan.Rate, 0)
	assert.Equal(t, ":8080", cfg.API.Listen)
}

func TestLoadFile_Errors(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "unknown extension", file: "radar.toml", content: "x = 1", wantErr: errUnknownFormat},
		{name: "bad duration", file: "radar.yaml", content: "scan:\n  timeout: soon\n", wantErr: errInvalidDuration},
		{name: "bad log format", file: "radar.yaml", content: "log:\n  format: xml\n", wantErr: errInvalidConfig},
		{name: "bad acquisition", file: "radar.json", content: `{"acquire": {"nb_frames": -1}}`, wantErr: errInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			err := LoadAndValidate(writeFile(t, tt.file, tt.content), &c)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), cfg))
}

func TestDuration_FlagValue(t *testing.T) {
	var d Duration

	require.NoError(t, d.Set("250ms"))
	assert.Equal(t, "250ms", d.String())
	assert.Equal(t, "duration", d.Type())
	require.ErrorIs(t, d.Set("later"), errInvalidDuration)
}
