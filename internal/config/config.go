// Package config loads service settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "voicecheck.toml"

type Server struct {
	Port            string   `toml:"port"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	ShutdownTimeout int      `toml:"shutdown_timeout_seconds"`
}

type Auth struct {
	Secret       string `toml:"secret"`
	TokenTTLHour int    `toml:"token_ttl_hours"`
	CookieName   string `toml:"cookie_name"`
	SecureCookie bool   `toml:"secure_cookie"`
}

type Database struct {
	Driver     string `toml:"driver"` // postgres | sqlite
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
}

type S3 struct {
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

type Storage struct {
	Backend string `toml:"backend"` // local | s3
	S3      S3     `toml:"s3"`
}

type Upload struct {
	Folder            string   `toml:"folder"`
	MaxBytes          int64    `toml:"max_bytes"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	DashboardLimit    int      `toml:"dashboard_limit"`
}

type Model struct {
	Path       string `toml:"path"`
	ScalerPath string `toml:"scaler_path"`
}

type Audio struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	FFmpegFallback bool   `toml:"ffmpeg_fallback"`
}

type Log struct {
	Level string `toml:"level"`
}

type Config struct {
	Server   Server   `toml:"server"`
	Auth     Auth     `toml:"auth"`
	Database Database `toml:"database"`
	Storage  Storage  `toml:"storage"`
	Upload   Upload   `toml:"upload"`
	Model    Model    `toml:"model"`
	Audio    Audio    `toml:"audio"`
	Log      Log      `toml:"log"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Port:            "8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10,
		},
		Auth: Auth{
			TokenTTLHour: 7 * 24,
			CookieName:   "session",
		},
		Database: Database{
			SQLitePath: "voice_analysis.db",
		},
		Storage: Storage{
			Backend: "local",
		},
		Upload: Upload{
			Folder:            "static/uploads",
			MaxBytes:          16 * 1024 * 1024,
			AllowedExtensions: []string{"wav", "mp3"},
			DashboardLimit:    10,
		},
		Model: Model{
			Path:       "best_voice_model.json",
			ScalerPath: "feature_scaler.json",
		},
		Audio: Audio{
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
			FFmpegFallback: true,
		},
		Log: Log{Level: "info"},
	}
}

// Load builds the configuration. A missing file is only an error when the
// caller asked for a path other than DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Server.Port, "PORT")
	setString(&c.Auth.Secret, "AUTH_SECRET")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Upload.Folder, "UPLOAD_FOLDER")
	setString(&c.Model.Path, "MODEL_PATH")
	setString(&c.Model.ScalerPath, "SCALER_PATH")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.Prefix, "S3_PREFIX")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Storage.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.Audio.FFmpegBinary, "FFMPEG_BINARY")
	setString(&c.Audio.FFprobeBinary, "FFPROBE_BINARY")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("MAX_CONTENT_LENGTH")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Upload.MaxBytes = n
		}
	}
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		if c.Database.URL != "" {
			c.Database.Driver = "postgres"
		} else {
			c.Database.Driver = "sqlite"
		}
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))

	exts := c.Upload.AllowedExtensions[:0]
	for _, e := range c.Upload.AllowedExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Upload.AllowedExtensions = exts
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Auth.Secret) == "" {
		problems = append(problems, "auth.secret (AUTH_SECRET) is not set")
	}
	if c.Auth.TokenTTLHour <= 0 {
		problems = append(problems, "auth.token_ttl_hours must be positive")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			problems = append(problems, "database.url (DATABASE_URL) is required for postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			problems = append(problems, "database.sqlite_path is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}
	switch c.Storage.Backend {
	case "local":
		if c.Upload.Folder == "" {
			problems = append(problems, "upload.folder is required for local storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			problems = append(problems, "storage.s3.bucket (S3_BUCKET) is required for s3 storage")
		}
		if c.Storage.S3.Region == "" {
			problems = append(problems, "storage.s3.region (S3_REGION) is required for s3 storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend))
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "upload.max_bytes must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		problems = append(problems, "upload.allowed_extensions is empty")
	}
	if c.Upload.DashboardLimit <= 0 {
		problems = append(problems, "upload.dashboard_limit must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHour) * time.Hour
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}
