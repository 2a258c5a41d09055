package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/handlers"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/http/middleware"
)

// stubConversionService returns a fixed successful result for every request.
type stubConversionService struct{}

func (s *stubConversionService) Convert(_ context.Context, _ *conversion.ConvertInput) (*conversion.ConvertResult, error) {
	return &conversion.ConvertResult{
		Status:   conversion.StatusSuccess,
		Entities: []clinical.Entity{},
		Warnings: []string{},
	}, nil
}

func (s *stubConversionService) ExtractOnly(_ context.Context, _ string) ([]clinical.Entity, error) {
	return []clinical.Entity{}, nil
}

// newTestRouterConfig assembles a RouterConfig with every dependency wired,
// mirroring what the server entrypoint builds.
func newTestRouterConfig(t *testing.T) RouterConfig {
	t.Helper()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "router_test"}, nil)
	require.NoError(t, err)

	return RouterConfig{
		ConvertHandler:   handlers.NewConvertHandler(&stubConversionService{}, 1<<20),
		HealthHandler:    handlers.NewHealthHandler("0.1.0"),
		InfoHandler:      handlers.NewInfoHandler("0.1.0"),
		CORSMiddleware:   middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		LoggingConfig:    middleware.DefaultLoggingConfig(),
		Logger:           logging.NewNopLogger(),
		AppMetrics:       prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
	}
}

func TestNewRouter_AllRoutes_Registered(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/docs"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/healthz/detail"},
		{http.MethodGet, "/readyz"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
		{http.MethodPost, "/convert"},
		{http.MethodPost, "/api/v1/convert"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.NotEqual(t, http.StatusNotFound, rec.Code,
				"route %s %s should be registered", rt.method, rt.path)
			assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code,
				"route %s %s should accept this method", rt.method, rt.path)
		})
	}
}

func TestNewRouter_Root_ServiceInfo(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Clinical Notes to FHIR Converter API")
}

func TestNewRouter_HealthAlias_SameAsLiveness(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	for _, path := range []string{"/healthz", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`, "path %s", path)
	}
}

func TestNewRouter_Convert_ReachesService(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	body := `{"clinical_note": "Patient reports chest pain and shortness of breath."}`

	for _, path := range []string{"/convert", "/api/v1/convert"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		assert.Contains(t, rec.Body.String(), `"status":"success"`, "path %s", path)
	}
}

func TestNewRouter_MetricsEndpoint_Exposed(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestNewRouter_UnknownRoute_NotFound(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_NilDependencies_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		router := NewRouter(RouterConfig{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
	})
}

func TestNewRouter_RateLimitApplied(t *testing.T) {
	cfg := newTestRouterConfig(t)
	rlCfg := middleware.DefaultRateLimitConfig()
	rlCfg.RequestsPerSecond = 0.001
	rlCfg.BurstSize = 1
	rlCfg.CleanupInterval = 0
	cfg.RateLimitMiddleware = middleware.NewRateLimitMiddleware(rlCfg)

	router := NewRouter(cfg)

	body := `{"clinical_note": "Patient reports chest pain and shortness of breath."}`

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMMON_009")

	// Probes stay exempt even with the client's bucket exhausted.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_CORSApplied_AllRoutes(t *testing.T) {
	router := NewRouter(newTestRouterConfig(t))

	for _, path := range []string{"/healthz", "/docs"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "path %s", path)
	}
}
