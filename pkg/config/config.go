package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Log      LogConfig
	CORS     CORSConfig
	Reports  ReportsConfig
	Exports  ExportsConfig
}

// DatabaseConfig locates the embedded SQLite database file.
type DatabaseConfig struct {
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// ReportsConfig tunes progress-report computation.
type ReportsConfig struct {
	WindowDays int
	CacheTTL   time.Duration
}

// ExportsConfig controls where rendered documents land.
type ExportsConfig struct {
	Dir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Path:         v.GetString("DB_PATH"),
		BusyTimeout:  parseDuration(v.GetString("DB_BUSY_TIMEOUT"), 5*time.Second),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	windowDays := v.GetInt("REPORT_WINDOW_DAYS")
	if windowDays <= 0 {
		windowDays = 30
	}
	cfg.Reports = ReportsConfig{
		WindowDays: windowDays,
		CacheTTL:   parseDuration(v.GetString("REPORT_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Dir: v.GetString("EXPORT_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_PATH", "./data/tpq.db")
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("REPORT_WINDOW_DAYS", 30)
	v.SetDefault("REPORT_CACHE_TTL", "5m")

	v.SetDefault("EXPORT_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
