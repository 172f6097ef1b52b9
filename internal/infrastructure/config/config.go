package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Log      LogSettings
	Database DatabaseSettings
	Audit    AuditSettings
	IBGE     IBGESettings
	ViaCEP   ViaCEPSettings
	Postal   PostalSettings
	Tracing  TracingSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	QueryTimeout    time.Duration // Upper bound for a whole /consultas request
	MaxFormBytes    int64
}

type LogSettings struct {
	Level string
}

// DatabaseSettings configures the optional audit trail store.
// An empty Host disables the database entirely.
type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuditSettings struct {
	Enabled         bool
	LogResponseBody bool
	MaxBodySize     int
}

type IBGESettings struct {
	BaseURL string
	Timeout time.Duration
}

type ViaCEPSettings struct {
	BaseURL string
	Timeout time.Duration
}

// PostalSettings controls the batch postal code resolver.
type PostalSettings struct {
	Workers int
}

type TracingSettings struct {
	Enabled   bool
	ZipkinURL string
}

const maxPostalWorkers = 32

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Missing .env is fine: containers pass plain environment variables.
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_consulta_ibge"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			QueryTimeout:    getEnvAsDuration("HTTP_QUERY_TIMEOUT", 60*time.Second),
			MaxFormBytes:    int64(getEnvAsInt("HTTP_MAX_FORM_BYTES", 1<<20)),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_consulta_ibge"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", false),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		IBGE: IBGESettings{
			BaseURL: getEnv("IBGE_BASE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades/municipios"),
			Timeout: getEnvAsDuration("IBGE_TIMEOUT", 10*time.Second),
		},
		ViaCEP: ViaCEPSettings{
			BaseURL: getEnv("VIACEP_BASE_URL", "https://viacep.com.br/ws"),
			Timeout: getEnvAsDuration("VIACEP_TIMEOUT", 3*time.Second),
		},
		Postal: PostalSettings{
			Workers: getEnvAsInt("POSTAL_WORKERS", 4),
		},
		Tracing: TracingSettings{
			Enabled:   getEnvAsBool("TRACING_ENABLED", false),
			ZipkinURL: strings.TrimSpace(os.Getenv("TRACING_ZIPKIN_URL")),
		},
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.Postal.Workers <= 0 || c.Postal.Workers > maxPostalWorkers {
		return fmt.Errorf("invalid config: POSTAL_WORKERS must be between 1 and %d", maxPostalWorkers)
	}
	if c.IBGE.Timeout <= 0 {
		return errors.New("invalid config: IBGE_TIMEOUT must be greater than 0")
	}
	if c.ViaCEP.Timeout <= 0 {
		return errors.New("invalid config: VIACEP_TIMEOUT must be greater than 0")
	}
	if c.HTTP.QueryTimeout <= 0 {
		return errors.New("invalid config: HTTP_QUERY_TIMEOUT must be greater than 0")
	}
	if c.HTTP.MaxFormBytes <= 0 {
		return errors.New("invalid config: HTTP_MAX_FORM_BYTES must be greater than 0")
	}
	if c.Tracing.Enabled && c.Tracing.ZipkinURL == "" {
		return errors.New("invalid config: TRACING_ZIPKIN_URL is required when TRACING_ENABLED=true")
	}
	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// Enabled reports whether a database host was configured.
func (d DatabaseSettings) Enabled() bool {
	return d.Host != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
