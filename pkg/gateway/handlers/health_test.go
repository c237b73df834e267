package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReadyzOK(t *testing.T) {
	rec := httptest.NewRecorder()
	ReadyHandler{Config: testConfig(t)}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestReadyzReportsIssues(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKey = ""
	cfg.MaxBodyBytes = 0

	rec := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp struct {
		OK          bool     `json:"ok"`
		LiveEnabled bool     `json:"live_enabled"`
		Issues      []string `json:"issues"`
	}
	decodeResponse(t, rec, &resp)
	if resp.OK || resp.LiveEnabled || len(resp.Issues) < 2 {
		t.Errorf("resp = %+v", resp)
	}
}
