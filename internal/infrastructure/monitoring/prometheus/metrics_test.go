package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.HTTPActiveRequests)

	assert.NotNil(t, m.ExtractionsTotal)
	assert.NotNil(t, m.EntitiesExtractedTotal)
	assert.NotNil(t, m.EntitiesPerNote)
	assert.NotNil(t, m.EmptyExtractionsTotal)

	assert.NotNil(t, m.BundleBuildDuration)
	assert.NotNil(t, m.BundleResourcesTotal)
	assert.NotNil(t, m.BundleEntryCount)

	assert.NotNil(t, m.ConversionsTotal)
	assert.NotNil(t, m.ConversionDuration)

	assert.NotNil(t, m.ServiceUptime)
	assert.NotNil(t, m.HealthCheckStatus)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "POST", "/convert", 200, 100*time.Millisecond, 1024, 2048)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/convert",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_size_bytes_sum{method="POST",path="/convert"} 1024`)
	assert.Contains(t, output, `test_unit_http_response_size_bytes_sum{method="POST",path="/convert"} 2048`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/convert"} 1`)
}

func TestRecordExtraction_CountsByCategory(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordExtraction(m, 120, map[string]int{
		"condition":  2,
		"medication": 1,
	}, 50*time.Microsecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_extractions_total{status="success"} 1`)
	assert.Contains(t, output, `test_unit_entities_extracted_total{category="condition"} 2`)
	assert.Contains(t, output, `test_unit_entities_extracted_total{category="medication"} 1`)
	assert.Contains(t, output, `test_unit_entities_per_note_sum 3`)
	assert.Contains(t, output, `test_unit_note_length_chars_sum 120`)
}

func TestRecordExtraction_EmptyResultIncrementsEmptyCounter(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordExtraction(m, 40, map[string]int{}, 10*time.Microsecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_empty_extractions_total 1`)
}

func TestRecordExtraction_NonEmptyDoesNotIncrementEmptyCounter(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordExtraction(m, 40, map[string]int{"condition": 1}, 10*time.Microsecond)

	output := scrapeMetrics(t, c)
	assert.NotContains(t, output, `test_unit_empty_extractions_total 1`)
}

func TestRecordBundleBuild_CountsByResourceType(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordBundleBuild(m, map[string]int{
		"Condition":           2,
		"MedicationStatement": 1,
		"Procedure":           1,
	}, 30*time.Microsecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_bundle_resources_total{resource_type="Condition"} 2`)
	assert.Contains(t, output, `test_unit_bundle_resources_total{resource_type="MedicationStatement"} 1`)
	assert.Contains(t, output, `test_unit_bundle_resources_total{resource_type="Procedure"} 1`)
	assert.Contains(t, output, `test_unit_bundle_entry_count_sum 4`)
}

func TestRecordConversion_SuccessAndFailure(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordConversion(m, true, 5*time.Millisecond)
	RecordConversion(m, false, 5*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_conversions_total{status="success"} 1`)
	assert.Contains(t, output, `test_unit_conversions_total{status="failure"} 1`)
	assert.Contains(t, output, `test_unit_conversion_duration_seconds_count 2`)
}

func TestRecordError_LabelsApplied(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordError(m, "http", "REQUEST_002", "warning")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_errors_total{component="http",error_type="REQUEST_002",severity="warning"} 1`)
}
