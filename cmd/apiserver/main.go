// API server entry point for ClinFHIR-Bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/config"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/fhir"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/prometheus"
	keywordextractor "github.com/turtacn/ClinFHIR-Bridge/internal/intelligence/keyword_extractor"
	httpserver "github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/handlers"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	// Load configuration (or use defaults if the file is absent).
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting ClinFHIR-Bridge API server",
		logging.String("version", config.Version),
		logging.String("commit", config.GitCommit),
		logging.Int("http_port", cfg.Server.HTTP.Port),
	)

	// Vocabulary: a configured file wins, otherwise the compiled-in terms.
	vocabulary, err := loadVocabulary(cfg, logger)
	if err != nil {
		logger.Fatal("vocabulary initialization failed", logging.Err(err))
	}

	extractor, err := keywordextractor.NewKeywordExtractor(vocabulary, keywordextractor.ExtractorConfig{
		MaxTextLength:    cfg.Extractor.MaxTextLength,
		BatchConcurrency: cfg.Extractor.BatchConcurrency,
	}, logger.Named("extractor"))
	if err != nil {
		logger.Fatal("extractor initialization failed", logging.Err(err))
	}

	builder := fhir.NewBundleBuilder().WithLogger(logger.Named("fhir"))

	var (
		collector  prometheus.MetricsCollector
		appMetrics *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			logger.Fatal("metrics initialization failed", logging.Err(err))
		}
		appMetrics = prometheus.NewAppMetrics(collector)
	}

	service := conversion.NewService(extractor, builder, appMetrics, logger.Named("conversion"))

	var rateLimit *middleware.RateLimitMiddleware
	if cfg.Server.RateLimit.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.Server.RateLimit.RequestsPerSecond
		rlCfg.BurstSize = cfg.Server.RateLimit.Burst
		rateLimit = middleware.NewRateLimitMiddleware(rlCfg)
		defer rateLimit.Stop()
		logger.Info("rate limiting enabled",
			logging.Float64("requests_per_second", rlCfg.RequestsPerSecond),
			logging.Int("burst", rlCfg.BurstSize),
		)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ConvertHandler: handlers.NewConvertHandler(service, cfg.Server.HTTP.MaxBodySize),
		HealthHandler: handlers.NewHealthHandler(config.Version,
			&extractorHealthAdapter{extractor: extractor},
			&bundleBuilderHealthAdapter{builder: builder},
		),
		InfoHandler:         handlers.NewInfoHandler(config.Version),
		CORSMiddleware:      middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		RateLimitMiddleware: rateLimit,
		LoggingConfig:       middleware.DefaultLoggingConfig(),
		Logger:              logger,
		AppMetrics:          appMetrics,
		MetricsCollector:    collector,
	})

	srv := httpserver.NewServer(cfg.Server.HTTP, router, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Fatal("HTTP server error", logging.Err(err))
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))

		if err := srv.Stop(context.Background()); err != nil {
			logger.Error("shutdown error", logging.Err(err))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// loadConfig loads configuration from path, erroring when the file is absent
// so main can fall back to defaults with a warning.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// loadVocabulary returns the extraction vocabulary selected by cfg.
func loadVocabulary(cfg *config.Config, logger logging.Logger) (*clinical.Vocabulary, error) {
	if cfg.Extractor.VocabularyPath == "" {
		return clinical.DefaultVocabulary(), nil
	}

	vocabulary, err := clinical.LoadVocabularyFile(cfg.Extractor.VocabularyPath)
	if err != nil {
		return nil, err
	}
	logger.Info("vocabulary loaded",
		logging.String("path", cfg.Extractor.VocabularyPath),
		logging.Int("terms", vocabulary.TermCount()),
	)
	return vocabulary, nil
}
