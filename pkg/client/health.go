package client

import (
	"context"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// HealthStatus is the liveness report of the service.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Healthy reports whether the service considers itself live.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// ReadinessStatus is the readiness report, including per-component checks
// when the server has any registered.
type ReadinessStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
}

// Ready reports whether the service is accepting work.
func (r *ReadinessStatus) Ready() bool {
	return r.Status == "ready"
}

// ComponentStatus is one component's readiness check result.
type ComponentStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Health returns the service liveness status.
// GET /healthz
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.get(ctx, "/healthz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readiness returns the service readiness status.
// GET /readyz
func (c *Client) Readiness(ctx context.Context) (*ReadinessStatus, error) {
	var resp ReadinessStatus
	if err := c.get(ctx, "/readyz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
