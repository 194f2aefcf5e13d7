package api

import "github.com/banshee-data/diffraction.report/internal/diffraction"

// AnalyzeRequest is the wire shape of POST /api/analyze.
type AnalyzeRequest struct {
	Data      diffraction.Pattern         `json:"data"`
	Config    *diffraction.AnalysisConfig `json:"config,omitempty"`
	RequestID string                      `json:"request_id,omitempty"`
}

// ServiceInfo describes the service for GET /.
type ServiceInfo struct {
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// Health is the readiness probe payload. It is independent of any analysis
// call: the probe only checks that the engine is constructed.
type Health struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	EngineReady   bool    `json:"engine_ready"`
}

// ServiceError is the structured error payload for 4xx/5xx responses.
type ServiceError struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
