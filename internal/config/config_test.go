package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClinFHIR-Bridge/internal/config"
)

// validConfig returns a Config that passes Validate().
func validConfig() *config.Config {
	return config.NewDefaultConfig()
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidHTTPPort(t *testing.T) {
	t.Parallel()
	cases := []int{0, -1, 65536, 100000}
	for _, p := range cases {
		p := p
		t.Run("", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Server.HTTP.Port = p
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "server.http.port")
		})
	}
}

func TestConfig_Validate_NonPositiveReadTimeout(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.HTTP.ReadTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http.read_timeout")
}

func TestConfig_Validate_NegativeShutdownTimeout(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.HTTP.ShutdownTimeout = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http.shutdown_timeout")
}

func TestConfig_Validate_InvalidMaxBodySize(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.HTTP.MaxBodySize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http.max_body_size")
}

func TestConfig_Validate_RateLimitBadRate(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSecond = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit.requests_per_second")
}

func TestConfig_Validate_RateLimitBadBurst(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.Burst = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit.burst")
}

func TestConfig_Validate_RateLimitDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_VocabularyPathMissing(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Extractor.VocabularyPath = filepath.Join(t.TempDir(), "no_such_vocabulary.yaml")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor.vocabulary_path")
}

func TestConfig_Validate_VocabularyPathExists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: {}\n"), 0o644))

	cfg := validConfig()
	cfg.Extractor.VocabularyPath = path
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_NegativeMaxTextLength(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Extractor.MaxTextLength = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor.max_text_length")
}

func TestConfig_Validate_BatchConcurrencyLessThanOne(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Extractor.BatchConcurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor.batch_concurrency")
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestConfig_Validate_MetricsNamespaceRequired(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics.namespace")
}

func TestConfig_Validate_MetricsDisabledAllowsEmptyNamespace(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SubStructs_ZeroValues(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	assert.Equal(t, "", cfg.Server.HTTP.Host)
	assert.Equal(t, 0, cfg.Server.HTTP.Port)
	assert.Equal(t, "", cfg.Extractor.VocabularyPath)
	assert.Equal(t, 0, cfg.Extractor.MaxTextLength)
	assert.Equal(t, "", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}
