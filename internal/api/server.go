// Package api exposes the peak analysis engine over HTTP. The transport
// only marshals requests and responses; all numerics stay in the
// diffraction package.
package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/diffraction.report/internal/diffraction"
	"github.com/banshee-data/diffraction.report/internal/httputil"
	"github.com/banshee-data/diffraction.report/internal/version"
)

// minAnalysisPoints is the service-level floor on pattern length; shorter
// patterns cannot support background and profile fits worth returning.
const minAnalysisPoints = 10

type Server struct {
	engine  *diffraction.Engine
	started time.Time
}

func NewServer(engine *diffraction.Engine) *Server {
	return &Server{
		engine:  engine,
		started: time.Now(),
	}
}

// ServeMux returns the API routes. Callers mount it under a prefix of
// their choosing; main.go uses /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/schema", s.handleSchema)
	mux.HandleFunc("/", s.handleInfo)
	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ServiceInfo{
		Service:     "Peak Analysis Service",
		Version:     s.engine.Version(),
		Description: "Scientific peak analysis for powder diffraction data",
		Endpoints: map[string]string{
			"analyze": "POST /analyze - Analyze diffraction data for peaks",
			"health":  "GET /health - Service health check",
			"schema":  "GET /schema - JSON schemas for request/response models",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	ready := s.engine != nil
	status := "healthy"
	if !ready {
		status = "unhealthy"
	}
	httputil.WriteJSON(w, http.StatusOK, Health{
		Status:        status,
		Version:       version.Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
		EngineReady:   ready,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schemaPayload)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	// Decode over pre-populated defaults so a partial config object only
	// overrides the fields it names; every omitted field keeps its default.
	defaults := diffraction.DefaultConfig()
	req := AnalyzeRequest{Config: &defaults}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if len(req.Data.Q) < minAnalysisPoints {
		writeServiceError(w, http.StatusBadRequest, "ValidationError",
			fmt.Sprintf("insufficient data points (minimum %d required)", minAnalysisPoints), requestID)
		return
	}

	cfg := diffraction.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	result, err := s.engine.Analyze(req.Data.Q, req.Data.Intensity, cfg)
	if err != nil {
		// Only input-shape and config violations reach here; everything
		// else degrades into warnings on the result.
		writeServiceError(w, http.StatusBadRequest, "ValidationError", err.Error(), requestID)
		return
	}

	result.RequestID = requestID
	if result.Processed != nil {
		result.Processed.Filename = req.Data.Filename
		result.Processed.SampleName = req.Data.SampleName
	}

	log.Printf("analyzed request %s: %d detected, %d fitted, %.1fms",
		requestID, result.Metadata.NumPeaksDetected, result.Metadata.NumPeaksFitted,
		result.Metadata.ProcessingMs)

	httputil.WriteJSON(w, http.StatusOK, result)
}

func writeServiceError(w http.ResponseWriter, status int, errType, msg, requestID string) {
	httputil.WriteJSON(w, status, ServiceError{
		ErrorType: errType,
		Message:   msg,
		RequestID: requestID,
	})
}
