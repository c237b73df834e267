package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(body)
}

func TestRecordRequest(t *testing.T) {
	m := New("test")
	m.RecordRequest(http.MethodGet, "/v1/videos", http.StatusOK, 25*time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `test_requests_total{method="GET",route="/v1/videos",status="200"} 1`) {
		t.Errorf("requests_total sample missing:\n%s", body)
	}
}

func TestRecordLiveSessionLifecycle(t *testing.T) {
	m := New("test")
	m.RecordLiveSessionStart()

	body := scrape(t, m)
	if !strings.Contains(body, "test_live_sessions_active 1") {
		t.Errorf("active gauge not incremented:\n%s", body)
	}

	m.RecordLiveSessionEnd("disconnected", 3*time.Second)
	body = scrape(t, m)
	if !strings.Contains(body, "test_live_sessions_active 0") {
		t.Errorf("active gauge not decremented:\n%s", body)
	}
	if !strings.Contains(body, `test_live_sessions_total{status="disconnected"} 1`) {
		t.Errorf("sessions total missing:\n%s", body)
	}
}

func TestRecordLiveAudioDirections(t *testing.T) {
	m := New("test")
	m.RecordLiveAudio("in", 8192)
	m.RecordLiveAudio("out", 48000)

	body := scrape(t, m)
	if !strings.Contains(body, `test_live_audio_bytes_total{direction="in"} 8192`) {
		t.Errorf("inbound audio bytes missing:\n%s", body)
	}
	if !strings.Contains(body, `test_live_audio_bytes_total{direction="out"} 48000`) {
		t.Errorf("outbound audio bytes missing:\n%s", body)
	}
}

func TestDefaultNamespace(t *testing.T) {
	m := New("")
	m.VideoViewsTotal.Inc()
	body := scrape(t, m)
	if !strings.Contains(body, "clipstream_video_views_total 1") {
		t.Errorf("default namespace not applied:\n%s", body)
	}
}
