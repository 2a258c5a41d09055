package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "CLINFHIR"

// configKeys lists every scalar configuration key.  Viper's AutomaticEnv does
// not surface unregistered keys through Unmarshal, so each key is bound
// explicitly; this lets CLINFHIR_* variables override keys absent from the
// config file and makes file-less loading work at all.  Slice-valued logging
// keys (output_paths, error_output_paths) are file-only.
var configKeys = []string{
	"server.http.host",
	"server.http.port",
	"server.http.read_timeout",
	"server.http.write_timeout",
	"server.http.idle_timeout",
	"server.http.shutdown_timeout",
	"server.http.max_body_size",
	"server.rate_limit.enabled",
	"server.rate_limit.requests_per_second",
	"server.rate_limit.burst",
	"extractor.vocabulary_path",
	"extractor.max_text_length",
	"extractor.batch_concurrency",
	"logging.level",
	"logging.format",
	"logging.filename",
	"logging.rotation.max_size_mb",
	"logging.rotation.max_backups",
	"logging.rotation.max_age_days",
	"logging.rotation.compress",
	"metrics.enabled",
	"metrics.namespace",
}

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, CLINFHIR_ env prefix, automatic env binding, and a
// key replacer that maps "." to "_" so that nested keys like
// "server.http.port" resolve to "CLINFHIR_SERVER_HTTP_PORT".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any CLINFHIR_* environment
// variable overrides, applies service defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CLINFHIR_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	CLINFHIR_<SECTION>_<FIELD>   e.g.  CLINFHIR_SERVER_HTTP_PORT, CLINFHIR_LOGGING_LEVEL
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file; rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level and extraction
// limits; callers are responsible for applying only the safe subset of
// changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called and
// the change is skipped.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here since callers call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// Config change produced an invalid config; skip the callback to
			// prevent the application from entering a broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
