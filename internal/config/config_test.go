package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AUTH_SECRET", "DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
		"UPLOAD_FOLDER", "MODEL_PATH", "SCALER_PATH", "STORAGE_BACKEND", "S3_BUCKET",
		"S3_REGION", "MAX_CONTENT_LENGTH", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "voice_analysis.db", cfg.Database.SQLitePath)
	assert.Equal(t, int64(16*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"wav", "mp3"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 10, cfg.Upload.DashboardLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL())

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "voicecheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9000"

[auth]
secret = "from-file"

[upload]
allowed_extensions = [".WAV", "mp3", " "]

[storage]
backend = "S3"

[storage.s3]
bucket = "voices"
region = "eu-central-1"
`), 0o644))

	t.Setenv("PORT", "9100")
	t.Setenv("DATABASE_URL", "postgres://localhost/voice")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, []string{"wav", "mp3"}, cfg.Upload.AllowedExtensions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Auth.Secret = "s"
	cfg.Database.Driver = "mysql"
	cfg.Storage.Backend = "s3"
	cfg.Upload.MaxBytes = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database.driver "mysql"`)
	assert.Contains(t, err.Error(), "S3_BUCKET")
	assert.Contains(t, err.Error(), "upload.max_bytes")
}
