package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Addr:                    ":0",
		GeminiAPIKey:            "test-key",
		LiveModel:               "gemini-2.0-flash-live-001",
		LiveVoice:               "Puck",
		LiveAllowVideo:          true,
		LiveMaxSessions:         4,
		LiveMaxJSONMessageBytes: 1 << 20,
		LiveHandshakeTimeout:    2 * time.Second,
		LiveWSWriteTimeout:      2 * time.Second,
		LiveMaxSessionDuration:  time.Minute,
		MaxBodyBytes:            1 << 20,
		PaymentProcessingDelay:  20 * time.Millisecond,
		AnalyticsPath:           filepath.Join(t.TempDir(), "analytics.json"),
		ReadHeaderTimeout:       time.Second,
		ReadTimeout:             time.Second,
		ShutdownGracePeriod:     time.Second,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T) (*store.Store, store.Video) {
	t.Helper()
	s := store.New()
	v, err := s.AddVideo(store.Video{Title: "clip", Channel: "ch"})
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	return s, v
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
