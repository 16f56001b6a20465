package endpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/server/endpoint"
	"github.com/kbukum/strategykit/version"
)

func init() { gin.SetMode(gin.TestMode) }

type staticChecker observability.Health

func (s staticChecker) CheckHealth(context.Context) observability.Health {
	return observability.Health(s)
}

func get(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	engine := gin.New()
	engine.GET("/", h)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []observability.HealthChecker
		wantCode   int
		wantStatus observability.HealthStatus
	}{
		{"no components", nil, http.StatusOK, observability.HealthStatusUp},
		{"degraded", []observability.HealthChecker{
			staticChecker{Name: "ledger", Status: observability.HealthStatusUp},
			staticChecker{Name: "cetus", Status: observability.HealthStatusDegraded},
		}, http.StatusOK, observability.HealthStatusDegraded},
		{"down", []observability.HealthChecker{
			staticChecker{Name: "ledger", Status: observability.HealthStatusDown},
			staticChecker{Name: "cetus", Status: observability.HealthStatusDegraded},
		}, http.StatusServiceUnavailable, observability.HealthStatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, endpoint.Health("strategyc", "1.0.0", tt.checkers...))
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var body struct {
				Service    string                 `json:"service"`
				Status     string                 `json:"status"`
				Timestamp  string                 `json:"timestamp"`
				Components []observability.Health `json:"components"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Status != string(tt.wantStatus) {
				t.Errorf("expected %s, got %s", tt.wantStatus, body.Status)
			}
			if body.Service != "strategyc" || body.Timestamp == "" {
				t.Errorf("expected service and timestamp, got %+v", body)
			}
			if len(body.Components) != len(tt.checkers) {
				t.Errorf("expected %d components, got %d", len(tt.checkers), len(body.Components))
			}
		})
	}
}

func TestVersion(t *testing.T) {
	rr := get(t, endpoint.Version())
	var info version.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.SchemaVersion != version.SchemaVersion {
		t.Errorf("expected schema %s, got %s", version.SchemaVersion, info.SchemaVersion)
	}
}

func TestMetrics(t *testing.T) {
	exposition := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("strategyc_compiles_total 3\n"))
	})
	rr := get(t, endpoint.Metrics(exposition))
	if rr.Body.String() != "strategyc_compiles_total 3\n" {
		t.Errorf("expected the exposition body, got %q", rr.Body.String())
	}

	rr = get(t, endpoint.Metrics(nil))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["goroutines"]; !ok {
		t.Errorf("expected a runtime summary, got %v", body)
	}
}
