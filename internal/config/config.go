package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

// SourcesConfig points at the external remote-sensing and weather providers.
type SourcesConfig struct {
	SentinelBaseURL      string
	SentinelClientID     string
	SentinelClientSecret string
	WeatherBaseURL       string
	Timeout              time.Duration
}

// AcquisitionConfig tunes the acquisition windows. Vegetation and soil
// signals always use a fixed 7-day trailing window; only the weather window
// is configurable.
type AcquisitionConfig struct {
	WeatherDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Sources     SourcesConfig
	Acquisition AcquisitionConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Sources: SourcesConfig{
			SentinelBaseURL:      v.GetString("SENTINEL_BASE_URL"),
			SentinelClientID:     v.GetString("SENTINEL_CLIENT_ID"),
			SentinelClientSecret: v.GetString("SENTINEL_CLIENT_SECRET"),
			WeatherBaseURL:       v.GetString("WEATHER_BASE_URL"),
			Timeout:              v.GetDuration("SOURCE_TIMEOUT"),
		},
		Acquisition: AcquisitionConfig{
			WeatherDays: v.GetInt("ACQ_WEATHER_DAYS"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Sources.WeatherBaseURL == "" {
		cfg.Sources.WeatherBaseURL = "https://power.larc.nasa.gov/api/temporal/daily/point"
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 10 * time.Second
	}
	if cfg.Acquisition.WeatherDays == 0 {
		cfg.Acquisition.WeatherDays = 7
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
