package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream-go/clipstream/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK          bool     `json:"ok"`
		LiveEnabled bool     `json:"live_enabled"`
		Issues      []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Config.MaxBodyBytes <= 0 {
		issues = append(issues, "max_body_bytes must be > 0")
	}
	if h.Config.LiveMaxSessions <= 0 {
		issues = append(issues, "live max sessions must be > 0")
	}
	if h.Config.LiveMaxJSONMessageBytes <= 0 {
		issues = append(issues, "live max json message bytes must be > 0")
	}
	if h.Config.LiveHandshakeTimeout <= 0 || h.Config.LiveWSWriteTimeout <= 0 {
		issues = append(issues, "live timeouts must be > 0")
	}
	if h.Config.LiveMaxSessionDuration <= 0 {
		issues = append(issues, "live max session duration must be > 0")
	}
	if h.Config.PaymentProcessingDelay <= 0 {
		issues = append(issues, "payment processing delay must be > 0")
	}
	if strings.TrimSpace(h.Config.AnalyticsPath) == "" {
		issues = append(issues, "analytics path must not be empty")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.ReadTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}

	liveEnabled := strings.TrimSpace(h.Config.GeminiAPIKey) != ""
	if !liveEnabled {
		issues = append(issues, "live sessions disabled: no backend api key configured")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:          ok,
		LiveEnabled: liveEnabled,
		Issues:      issues,
	})
}
