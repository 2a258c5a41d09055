package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction Layer
	ExtractionsTotal       CounterVec
	ExtractionDuration     HistogramVec
	EntitiesExtractedTotal CounterVec
	EntitiesPerNote        HistogramVec
	EmptyExtractionsTotal  CounterVec
	NoteLengthChars        HistogramVec

	// FHIR Layer
	BundleBuildDuration  HistogramVec
	BundleResourcesTotal CounterVec
	BundleEntryCount     HistogramVec

	// Conversion Layer
	ConversionsTotal   CounterVec
	ConversionDuration HistogramVec

	// System Health
	ServiceUptime     GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultExtractionDurationBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1}
	DefaultSizeBuckets               = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultEntityCountBuckets        = []float64{0, 1, 2, 3, 5, 8, 13, 21, 50, 100}
	DefaultNoteLengthBuckets         = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Extraction
	m.ExtractionsTotal = collector.RegisterCounter("extractions_total", "Keyword extraction runs", "status")
	m.ExtractionDuration = collector.RegisterHistogram("extraction_duration_seconds", "Keyword extraction duration", DefaultExtractionDurationBuckets)
	m.EntitiesExtractedTotal = collector.RegisterCounter("entities_extracted_total", "Entities extracted", "category")
	m.EntitiesPerNote = collector.RegisterHistogram("entities_per_note", "Entities extracted per note", DefaultEntityCountBuckets)
	m.EmptyExtractionsTotal = collector.RegisterCounter("empty_extractions_total", "Extractions that matched no entities")
	m.NoteLengthChars = collector.RegisterHistogram("note_length_chars", "Clinical note length in characters", DefaultNoteLengthBuckets)

	// FHIR
	m.BundleBuildDuration = collector.RegisterHistogram("bundle_build_duration_seconds", "FHIR bundle assembly duration", DefaultExtractionDurationBuckets)
	m.BundleResourcesTotal = collector.RegisterCounter("bundle_resources_total", "FHIR resources emitted", "resource_type")
	m.BundleEntryCount = collector.RegisterHistogram("bundle_entry_count", "Entries per FHIR bundle", DefaultEntityCountBuckets)

	// Conversion
	m.ConversionsTotal = collector.RegisterCounter("conversions_total", "Note-to-bundle conversions", "status")
	m.ConversionDuration = collector.RegisterHistogram("conversion_duration_seconds", "End-to-end conversion duration", DefaultHTTPDurationBuckets)

	// System Health
	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type", "severity")

	return m
}

// RegisterAppMetrics is an alias for NewAppMetrics.
func RegisterAppMetrics(collector MetricsCollector) *AppMetrics {
	return NewAppMetrics(collector)
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordExtraction updates the extraction metrics after a single run.
// entityCounts maps category name to the number of entities found.
func RecordExtraction(metrics *AppMetrics, noteLen int, entityCounts map[string]int, duration time.Duration) {
	metrics.ExtractionsTotal.WithLabelValues("success").Inc()
	metrics.ExtractionDuration.WithLabelValues().Observe(duration.Seconds())
	metrics.NoteLengthChars.WithLabelValues().Observe(float64(noteLen))

	total := 0
	for category, n := range entityCounts {
		metrics.EntitiesExtractedTotal.WithLabelValues(category).Add(float64(n))
		total += n
	}
	metrics.EntitiesPerNote.WithLabelValues().Observe(float64(total))
	if total == 0 {
		metrics.EmptyExtractionsTotal.WithLabelValues().Inc()
	}
}

// RecordBundleBuild updates the FHIR metrics after assembling a bundle.
// resourceCounts maps resource type to the number of resources emitted.
func RecordBundleBuild(metrics *AppMetrics, resourceCounts map[string]int, duration time.Duration) {
	metrics.BundleBuildDuration.WithLabelValues().Observe(duration.Seconds())

	total := 0
	for resourceType, n := range resourceCounts {
		metrics.BundleResourcesTotal.WithLabelValues(resourceType).Add(float64(n))
		total += n
	}
	metrics.BundleEntryCount.WithLabelValues().Observe(float64(total))
}

// RecordConversion updates the conversion outcome metrics.
func RecordConversion(metrics *AppMetrics, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.ConversionsTotal.WithLabelValues(status).Inc()
	metrics.ConversionDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordError(metrics *AppMetrics, component, errorType, severity string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType, severity).Inc()
}
