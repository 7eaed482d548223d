package health

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes. It runs no
// checks.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler that runs every check and
// writes the overall status in upper case. Only an unhealthy service is
// reported as unavailable; a degraded cache still serves queries.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := OverallStatus(agg.CheckAll(r.Context()))
		body := strings.ToUpper(status.String())
		if status == StatusHealthy {
			body = "OK"
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(httpStatus(status))
		_, _ = w.Write([]byte(body))
	}
}

// HealthResponse is the JSON body of the detailed health endpoint. Checks
// are listed in registration order.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Checks    []CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of a single Result.
type CheckResponse struct {
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// NewCheckResponse converts r for encoding.
func NewCheckResponse(r Result) CheckResponse {
	resp := CheckResponse{
		Name:       r.Name,
		Status:     r.Status.String(),
		Message:    r.Message,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
		Details:    r.Details,
	}
	if r.Error != nil {
		resp.Error = r.Error.Error()
	}
	return resp
}

// DetailedHandler returns an HTTP handler reporting every check as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := OverallStatus(results)

		response := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		for _, result := range agg.Ordered(results) {
			response.Checks = append(response.Checks, NewCheckResponse(result))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus(status))
		_ = json.NewEncoder(w).Encode(response)
	}
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// RegisterHandlers mounts /healthz, /readyz and /health on mux.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(agg))
	mux.HandleFunc("/health", DetailedHandler(agg))
}
