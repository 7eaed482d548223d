package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy(""), http.StatusOK, "OK"},
		{"degraded", Degraded(""), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("", nil), http.StatusServiceUnavailable, "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(0)
			agg.Register(fixed("c", tt.result))
			rec := httptest.NewRecorder()
			ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Fatalf("got %d %q, want %d %q", rec.Code, rec.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestRegisterHandlers_Detailed(t *testing.T) {
	agg := NewAggregator(0)
	agg.Register(fixed("fragment_cache", Healthy("3 entries").WithDetails(map[string]any{"entries": 3})))
	agg.Register(fixed("content_store", Unhealthy("probe failed", errors.New("not found"))))

	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "unhealthy" || len(body.Checks) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	cacheCheck, storeCheck := body.Checks[0], body.Checks[1]
	if cacheCheck.Name != "fragment_cache" || storeCheck.Name != "content_store" {
		t.Fatalf("checks out of registration order: %s, %s", cacheCheck.Name, storeCheck.Name)
	}
	if storeCheck.Error != "not found" {
		t.Errorf("content_store error = %q", storeCheck.Error)
	}
	if got := cacheCheck.Details["entries"]; got != float64(3) {
		t.Errorf("fragment_cache entries = %v", got)
	}
}
