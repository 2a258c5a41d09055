// HTTP helpers shared by the end-to-end tests: request builders, response
// assertions, and wire-format mirror types, all against env.baseURL.  The
// mirror types deliberately duplicate the response shapes instead of
// importing the server's DTOs, so these tests pin the wire format itself.
package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// doGet sends a GET request to the given path.
func doGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, env.baseURL+path, nil)
	if err != nil {
		t.Fatalf("create GET request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := env.httpClient.Do(req)
	if err != nil {
		t.Fatalf("execute GET request: %v", err)
	}

	t.Logf("GET %s -> %d", path, resp.StatusCode)
	return resp
}

// doPost sends a POST request with a JSON-encoded body.
func doPost(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return doRawPost(t, path, "application/json", data)
}

// doRawPost sends a POST request with the body bytes as given, for tests
// that need malformed payloads.
func doRawPost(t *testing.T, path, contentType string, body []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, env.baseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create POST request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := env.httpClient.Do(req)
	if err != nil {
		t.Fatalf("execute POST request: %v", err)
	}

	t.Logf("POST %s -> %d", path, resp.StatusCode)
	return resp
}

// assertStatus fails the test when the response status differs from expected.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d; body: %s", expected, resp.StatusCode, string(body))
	}
}

// decodeBody reads and unmarshals the response body, closing it.
func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("unmarshal response: %v; body: %s", err, string(body))
	}
}

// assertErrorResponse checks the status code plus the error envelope's code.
func assertErrorResponse(t *testing.T, resp *http.Response, wantStatus int, wantCode string) {
	t.Helper()
	assertStatus(t, resp, wantStatus)

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &envelope)

	if envelope.Code != wantCode {
		t.Fatalf("expected error code %q, got %q (message: %s)", wantCode, envelope.Code, envelope.Message)
	}
	if envelope.Message == "" {
		t.Fatal("expected a non-empty error message")
	}
}

// convertResponse mirrors the /convert response body.
type convertResponse struct {
	Status   string          `json:"status"`
	Entities []entityJSON    `json:"entities"`
	Bundle   json.RawMessage `json:"fhir_bundle"`
	Warnings []string        `json:"warnings"`
}

// entityJSON mirrors one extracted entity on the wire.
type entityJSON struct {
	Text       string  `json:"text"`
	Type       string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// bundleJSON mirrors the FHIR bundle as it appears on the wire.
type bundleJSON struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp"`
	Entry        []bundleEntry `json:"entry"`
}

type bundleEntry struct {
	FullURL  string                 `json:"fullUrl"`
	Resource map[string]interface{} `json:"resource"`
}

// decodeBundle unmarshals the raw fhir_bundle payload.
func decodeBundle(t *testing.T, raw json.RawMessage) bundleJSON {
	t.Helper()

	var bundle bundleJSON
	if err := json.Unmarshal(raw, &bundle); err != nil {
		t.Fatalf("unmarshal bundle: %v; raw: %s", err, string(raw))
	}
	return bundle
}

// subjectRef digs the subject reference out of a bundle entry resource.
func subjectRef(entry bundleEntry) string {
	subject, _ := entry.Resource["subject"].(map[string]interface{})
	ref, _ := subject["reference"].(string)
	return ref
}
