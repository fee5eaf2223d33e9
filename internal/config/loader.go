package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "sensorlog.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SENSORLOG_PORT")
	setString(&cfg.Server.CORSOrigin, "SENSORLOG_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SENSORLOG_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SENSORLOG_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SENSORLOG_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SENSORLOG_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SENSORLOG_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "SENSORLOG_NATS_ENABLED")
	setString(&cfg.Keys.SensorSalt, "SENSORLOG_SENSOR_SALT")
	setString(&cfg.Keys.GroupSalt, "SENSORLOG_GROUP_SALT")
	setInt(&cfg.Keys.MinLength, "SENSORLOG_KEY_MIN_LENGTH")
	setString(&cfg.Auth.JWTSecret, "SENSORLOG_JWT_SECRET")
	setDuration(&cfg.Auth.TokenExpiry, "SENSORLOG_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "SENSORLOG_BCRYPT_COST")
	setString(&cfg.Logging.Level, "SENSORLOG_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SENSORLOG_LOG_SERVICE")
	setFloat64(&cfg.Rate.RequestsPerSecond, "SENSORLOG_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SENSORLOG_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SENSORLOG_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SENSORLOG_RATE_MAX_IDLE_TIME")
	setBool(&cfg.Telemetry.Enabled, "SENSORLOG_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "SENSORLOG_OTEL_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Keys.SensorSalt == cfg.Keys.GroupSalt {
		return errors.New("keys.sensor_salt and keys.group_salt must differ")
	}
	if cfg.Keys.MinLength < 1 {
		return errors.New("keys.min_length must be >= 1")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
