package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/diffraction.report/internal/diffraction"
)

func newTestServer() *Server {
	return NewServer(diffraction.New())
}

func gaussianRequest(n int) AnalyzeRequest {
	q := make([]float64, n)
	intensity := make([]float64, n)
	for i := range q {
		q[i] = 1 + 9*float64(i)/float64(n-1)
		d := (q[i] - 5.0) / 0.2
		intensity[i] = 100 + 5000*math.Exp(-0.5*d*d)
	}
	return AnalyzeRequest{
		Data: diffraction.Pattern{Q: q, Intensity: intensity, Filename: "synthetic.chi"},
	}
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer()
	body, _ := json.Marshal(gaussianRequest(500))

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result diffraction.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.RequestID == "" {
		t.Error("expected a generated request_id")
	}
	if !result.Metadata.Success {
		t.Errorf("expected success, warnings: %v", result.Metadata.Warnings)
	}
	if result.Metadata.NumPeaksFitted != 1 {
		t.Errorf("NumPeaksFitted = %d, want 1", result.Metadata.NumPeaksFitted)
	}
	if result.Processed == nil || result.Processed.Filename != "synthetic.chi" {
		t.Error("processed pattern should carry the input filename")
	}
}

func TestHandleAnalyzePreservesRequestID(t *testing.T) {
	srv := newTestServer()
	reqBody := gaussianRequest(200)
	reqBody.RequestID = "req-42"
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	var result diffraction.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", result.RequestID)
	}
}

func TestHandleAnalyzeTooFewPoints(t *testing.T) {
	srv := newTestServer()
	body, _ := json.Marshal(gaussianRequest(5))

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var svcErr ServiceError
	if err := json.NewDecoder(rec.Body).Decode(&svcErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if svcErr.ErrorType != "ValidationError" {
		t.Errorf("ErrorType = %q, want ValidationError", svcErr.ErrorType)
	}
}

// A config object that names only some fields must keep the defaults for
// everything it omits instead of collapsing them to zero values.
func TestHandleAnalyzePartialConfig(t *testing.T) {
	srv := newTestServer()
	reqBody := gaussianRequest(500)
	raw, _ := json.Marshal(reqBody.Data)
	body := fmt.Sprintf(`{"data":%s,"config":{"quality_threshold":0.9}}`, raw)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result diffraction.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Metadata.Success {
		t.Errorf("expected success, warnings: %v", result.Metadata.Warnings)
	}
	if result.Metadata.NumPeaksFitted != 1 {
		t.Errorf("NumPeaksFitted = %d, want 1", result.Metadata.NumPeaksFitted)
	}
}

func TestHandleAnalyzeEmptyDetectionConfig(t *testing.T) {
	srv := newTestServer()
	reqBody := gaussianRequest(500)
	raw, _ := json.Marshal(reqBody.Data)
	// Empty nested objects must not wipe the detection thresholds; with the
	// default prominence and distance this pattern yields exactly one peak.
	body := fmt.Sprintf(`{"data":%s,"config":{"detection":{},"fitting":{}}}`, raw)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result diffraction.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Metadata.NumPeaksDetected != 1 {
		t.Errorf("NumPeaksDetected = %d, want 1", result.Metadata.NumPeaksDetected)
	}
}

func TestHandleAnalyzeLengthMismatch(t *testing.T) {
	srv := newTestServer()
	reqBody := gaussianRequest(100)
	reqBody.Data.Intensity = reqBody.Data.Intensity[:50]
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyzeBadJSON(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyzeMethodNotAllowed(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var h Health
	if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "healthy" || !h.EngineReady {
		t.Errorf("health = %+v, want healthy and ready", h)
	}
}

func TestHandleInfo(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info ServiceInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Service == "" || len(info.Endpoints) == 0 {
		t.Errorf("info = %+v, want populated service description", info)
	}
}

func TestHandleSchema(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var schemas map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&schemas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"request_schema", "response_schema", "config_schema", "error_schema"} {
		if _, ok := schemas[key]; !ok {
			t.Errorf("schema payload missing %q", key)
		}
	}
}

func TestClientAgainstServer(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.ServeMux())
	defer ts.Close()

	client := NewClient(ts.URL)

	h, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", h.Status)
	}

	result, err := client.Analyze(context.Background(), gaussianRequest(500))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Metadata.NumPeaksFitted != 1 {
		t.Errorf("NumPeaksFitted = %d, want 1", result.Metadata.NumPeaksFitted)
	}
}

func TestClientSurfacesServiceError(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.ServeMux())
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.Analyze(context.Background(), gaussianRequest(3))
	if err == nil {
		t.Fatal("expected a service error for a 3-point pattern")
	}
	if !strings.Contains(err.Error(), "ValidationError") {
		t.Errorf("error should carry the service error type: %v", err)
	}
}

// Guard against accidental route renames; the dashboard and CLI both
// hard-code these paths.
func TestRouteTable(t *testing.T) {
	srv := newTestServer()
	mux := srv.ServeMux()
	for _, path := range []string{"/", "/health", "/schema"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(fmt.Sprintf(`{"data":{"q_values":%s,"intensities":%s}}`, "[1,2,3,4,5,6,7,8,9,10]", "[1,1,1,5,9,5,1,1,1,1]")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST /analyze = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}
