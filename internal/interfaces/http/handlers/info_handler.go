package handlers

import "net/http"

// InfoHandler serves the service information endpoints.
type InfoHandler struct {
	version string
}

// NewInfoHandler creates an InfoHandler reporting the given version.
func NewInfoHandler(version string) *InfoHandler {
	return &InfoHandler{version: version}
}

// InfoResponse is the GET / body.
type InfoResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// Root handles GET / with pointers to the documentation and health endpoints.
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message: "Clinical Notes to FHIR Converter API",
		Docs:    "/docs",
		Health:  "/healthz",
	})
}

// EndpointDoc describes a single API endpoint.
type EndpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// DocsResponse is the GET /docs body.
type DocsResponse struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Endpoints []EndpointDoc `json:"endpoints"`
}

// Docs handles GET /docs with a machine-readable listing of the API surface.
func (h *InfoHandler) Docs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DocsResponse{
		Service: "Clinical Notes to FHIR Converter API",
		Version: h.version,
		Endpoints: []EndpointDoc{
			{Method: http.MethodPost, Path: "/convert", Description: "Convert a clinical note into extracted entities and a FHIR bundle"},
			{Method: http.MethodPost, Path: "/api/v1/convert", Description: "Versioned alias of /convert"},
			{Method: http.MethodGet, Path: "/", Description: "Service information"},
			{Method: http.MethodGet, Path: "/docs", Description: "This endpoint listing"},
			{Method: http.MethodGet, Path: "/healthz", Description: "Liveness probe"},
			{Method: http.MethodGet, Path: "/healthz/detail", Description: "Per-component health detail"},
			{Method: http.MethodGet, Path: "/readyz", Description: "Readiness probe"},
			{Method: http.MethodGet, Path: "/metrics", Description: "Prometheus metrics"},
		},
	})
}
