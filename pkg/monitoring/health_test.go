package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newChecker(t *testing.T) *HealthChecker {
	t.Helper()
	hc := NewHealthChecker(ServiceName, "test")
	t.Cleanup(hc.Shutdown)
	return hc
}

func TestHealthCheckerInitiallyHealthy(t *testing.T) {
	hc := newChecker(t)

	health := hc.GetHealth()
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.Service != ServiceName {
		t.Errorf("service = %q, want %q", health.Service, ServiceName)
	}
}

func TestHealthCheckerDegradedAndUnhealthy(t *testing.T) {
	hc := newChecker(t)

	hc.UpdateConnection("overpass", "connected", 12, nil)
	hc.UpdateConnection("redis", "connected", 1, nil)
	if got := hc.GetHealth().Status; got != "healthy" {
		t.Errorf("status = %q, want healthy", got)
	}

	// One of two connections failing degrades the service.
	hc.UpdateConnection("redis", "error", 0, errors.New("connection refused"))
	if got := hc.GetHealth().Status; got != "degraded" {
		t.Errorf("status = %q, want degraded", got)
	}

	// Both failing makes it unhealthy.
	hc.UpdateConnection("overpass", "error", 0, errors.New("timeout"))
	if got := hc.GetHealth().Status; got != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", got)
	}
}

func TestHealthHandlerStatusCodes(t *testing.T) {
	hc := newChecker(t)

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status code = %d, want 200", rec.Code)
	}

	var health ServiceHealth
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("body status = %q", health.Status)
	}

	hc.UpdateConnection("overpass", "error", 0, errors.New("down"))
	rec = httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status code = %d, want 503", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	hc := newChecker(t)

	rec := httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["ready"] != true {
		t.Errorf("ready = %v, want true", body["ready"])
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := newChecker(t)

	rec := httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}
}

func TestConnectionMonitorUpdatesHealth(t *testing.T) {
	hc := newChecker(t)

	check := func(context.Context) error { return nil }
	cm := NewConnectionMonitor("overpass", hc, check, time.Hour)
	cm.performCheck()
	cm.Stop()

	health := hc.GetHealth()
	conn, ok := health.Connections["overpass"]
	if !ok {
		t.Fatal("connection not recorded")
	}
	if conn.Status != "connected" {
		t.Errorf("status = %q, want connected", conn.Status)
	}
}

func TestConnectionMonitorRecordsErrors(t *testing.T) {
	hc := newChecker(t)

	check := func(context.Context) error { return errors.New("refused") }
	cm := NewConnectionMonitor("overpass", hc, check, time.Hour)
	cm.performCheck()
	cm.Stop()

	conn := hc.GetHealth().Connections["overpass"]
	if conn.Status != "error" {
		t.Errorf("status = %q, want error", conn.Status)
	}
	if conn.LastError != "refused" {
		t.Errorf("last error = %q", conn.LastError)
	}
}
