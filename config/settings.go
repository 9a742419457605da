package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings is the process configuration, read from the environment (and an
// optional .env file).
type Settings struct {
	Port string `envconfig:"PORT" default:"8080"`

	DatabaseURL     string        `envconfig:"DB_URL" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// HomeState is the seller's GST registration state; payments billed to the
	// same state split into CGST+SGST, all others go to IGST.
	HomeState string `envconfig:"HOME_STATE" default:"Gujarat"`

	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
	SlowRequestThreshold time.Duration `envconfig:"SLOW_REQUEST_THRESHOLD" default:"200ms"`
	AllowedOrigins       []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	CodeRetryAttempts int `envconfig:"CODE_RETRY_ATTEMPTS" default:"3"`

	// TraceExporter is "stdout" or "none"; with "none" spans are sampled but
	// not exported.
	TraceExporter    string  `envconfig:"TRACE_EXPORTER" default:"none"`
	TraceSampleRatio float64 `envconfig:"TRACE_SAMPLE_RATIO" default:"1"`
}

// Load reads .env (if present) and the environment into Settings.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load settings from env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if s.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", s.MaxOpenConns)
	}
	if s.MaxIdleConns < 0 || s.MaxIdleConns > s.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and %d, got %d", s.MaxOpenConns, s.MaxIdleConns)
	}
	if s.CodeRetryAttempts <= 0 {
		return fmt.Errorf("CODE_RETRY_ATTEMPTS must be positive, got %d", s.CodeRetryAttempts)
	}
	if s.TraceExporter != "stdout" && s.TraceExporter != "none" {
		return fmt.Errorf("TRACE_EXPORTER must be stdout or none, got %q", s.TraceExporter)
	}
	if s.TraceSampleRatio < 0 || s.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1, got %v", s.TraceSampleRatio)
	}
	if s.HomeState == "" {
		return fmt.Errorf("HOME_STATE must not be empty")
	}
	return nil
}
