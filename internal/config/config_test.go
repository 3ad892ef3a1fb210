package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SourceScreen, cfg.Camera.Source)
	assert.Equal(t, LevelAccurate, cfg.Recognition.Level)
	assert.True(t, cfg.Recognition.LanguageCorrection)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Camera.Source = "webcam" }},
		{"folder without path", func(c *Config) { c.Camera.Source = SourceFolder; c.Camera.Folder = "" }},
		{"bad photo format", func(c *Config) { c.Camera.PhotoFormat = "gif" }},
		{"no detector", func(c *Config) { c.Recognition.Detector = " " }},
		{"bad level", func(c *Config) { c.Recognition.Level = "best" }},
		{"zero workers", func(c *Config) { c.Recognition.Workers = 0 }},
		{"negative dimension", func(c *Config) { c.Recognition.MaxDimension = -1 }},
		{"empty base url", func(c *Config) { c.Pantry.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Pantry.TimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Camera.Source = SourceFolder
	cfg.Camera.Folder = "/tmp/frames"
	cfg.Recognition.Languages = []string{"eng", "deu"}
	require.NoError(t, Save(path, cfg))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pantry:\n  base_url: http://pantry.local:8000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://pantry.local:8000", cfg.Pantry.BaseURL)
	assert.Equal(t, 10.0, cfg.Pantry.TimeoutSeconds)
	assert.Equal(t, SourceScreen, cfg.Camera.Source)
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera: [unterminated"), 0644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PANTRY_API_URL", "http://10.0.0.5:8000")
	t.Setenv("PANTRY_LOG_LEVEL", "debug")
	t.Setenv("PANTRY_CAMERA_SOURCE", SourceFolder)
	t.Setenv("PANTRY_CAMERA_FOLDER", "/data/frames")

	t.Setenv("PANTRY_CAMERA_DISPLAY", "1")
	t.Setenv("PANTRY_RECOGNITION_WORKERS", "4")
	t.Setenv("PANTRY_API_TIMEOUT", "2.5")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Pantry.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceFolder, cfg.Camera.Source)
	assert.Equal(t, "/data/frames", cfg.Camera.Folder)
	assert.Equal(t, 1, cfg.Camera.Display)
	assert.Equal(t, 4, cfg.Recognition.Workers)
	assert.Equal(t, 2500*time.Millisecond, cfg.Pantry.Timeout())
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("PANTRY_RECOGNITION_WORKERS", "many")

	cfg := Default()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PANTRY_RECOGNITION_WORKERS")
}

func TestResolvePermissionFile(t *testing.T) {
	c := CameraConfig{PermissionFile: "/tmp/perm.yaml"}
	path, err := c.ResolvePermissionFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/perm.yaml", path)

	t.Setenv("APPDATA", "")
	t.Setenv("HOME", t.TempDir())
	path, err = CameraConfig{}.ResolvePermissionFile()
	require.NoError(t, err)
	assert.Equal(t, "permission.yaml", filepath.Base(path))
}
