// Package config defines all configuration structures for the ClinFHIR-Bridge
// service.  No I/O or parsing logic lives here; only plain data types and
// validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Build metadata
// ─────────────────────────────────────────────────────────────────────────────

// Version, GitCommit, and BuildDate are reported by the health endpoint and
// the CLI version command.  They are overridden at release time via
// -ldflags "-X github.com/turtacn/ClinFHIR-Bridge/internal/config.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds HTTP listener tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// RateLimitConfig holds per-client request throttling for the HTTP listener.
// Throttling is opt-in; when disabled every request is admitted.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ServerConfig groups the transport listeners exposed by the service.
type ServerConfig struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ExtractorConfig holds entity-extraction parameters.
type ExtractorConfig struct {
	// VocabularyPath points at a YAML vocabulary file.  Empty means the
	// compiled-in clinical vocabulary is used.
	VocabularyPath   string `mapstructure:"vocabulary_path"`
	MaxTextLength    int    `mapstructure:"max_text_length"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire service.
// Every component reads its settings from the relevant sub-struct.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Extractor ExtractorConfig   `mapstructure:"extractor"`
	Logging   logging.LogConfig `mapstructure:"logging"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks HTTP listener tunables for semantic errors.
func (c *HTTPConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d is out of range [1, 65535]", c.Port)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("config: server.http.read_timeout must be positive, got %v", c.ReadTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("config: server.http.write_timeout must be positive, got %v", c.WriteTimeout)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("config: server.http.idle_timeout must be positive, got %v", c.IdleTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: server.http.shutdown_timeout must be positive, got %v", c.ShutdownTimeout)
	}
	if c.MaxBodySize < 1 {
		return fmt.Errorf("config: server.http.max_body_size must be ≥ 1, got %d", c.MaxBodySize)
	}
	return nil
}

// Validate checks throttling parameters for semantic errors.  Disabled
// throttling skips the checks so a bare config stays valid.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: server.rate_limit.requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.Burst < 1 {
		return fmt.Errorf("config: server.rate_limit.burst must be ≥ 1, got %d", c.Burst)
	}
	return nil
}

// Validate checks extraction parameters for semantic errors.  A configured
// vocabulary file must exist at startup; a missing file would otherwise only
// surface on the first conversion request.
func (c *ExtractorConfig) Validate() error {
	if c.VocabularyPath != "" {
		if _, err := os.Stat(c.VocabularyPath); err != nil {
			return fmt.Errorf("config: extractor.vocabulary_path %q is not readable: %w", c.VocabularyPath, err)
		}
	}
	if c.MaxTextLength < 0 {
		return fmt.Errorf("config: extractor.max_text_length must be ≥ 0, got %d", c.MaxTextLength)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("config: extractor.batch_concurrency must be ≥ 1, got %d", c.BatchConcurrency)
	}
	return nil
}

// Validate checks metrics exposition parameters for semantic errors.
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics.enabled is true")
	}
	return nil
}

// validateLogging checks the logging section for semantic errors.  The
// logging package itself falls back to defaults for unrecognised values;
// validation here turns silent fallback into a startup error for typos.
func validateLogging(c *logging.LogConfig) error {
	switch c.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: logging.level %q is invalid; expected debug|info|warn|error", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.format %q is invalid; expected json|console", c.Format)
	}
	return nil
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if err := c.Server.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Server.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Extractor.Validate(); err != nil {
		return err
	}
	if err := validateLogging(&c.Logging); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
