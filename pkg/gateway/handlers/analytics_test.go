package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

func newAnalyticsHandler(t *testing.T) (AnalyticsHandler, store.Video) {
	t.Helper()
	cfg := testConfig(t)
	s, v := seededStore(t)
	a, err := store.OpenAnalytics(cfg.AnalyticsPath)
	if err != nil {
		t.Fatalf("OpenAnalytics: %v", err)
	}
	return AnalyticsHandler{Config: cfg, Store: s, Analytics: a, Metrics: metrics.New("test")}, v
}

func TestRecordViewIncrements(t *testing.T) {
	h, v := newAnalyticsHandler(t)

	for want := int64(1); want <= 2; want++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/videos/"+v.ID+"/view", nil)
		req.SetPathValue("id", v.ID)
		rec := httptest.NewRecorder()
		h.RecordView(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		var resp viewResponse
		decodeResponse(t, rec, &resp)
		if resp.Views != want {
			t.Errorf("views = %d, want %d", resp.Views, want)
		}
	}
}

func TestRecordViewUnknownVideo(t *testing.T) {
	h, _ := newAnalyticsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/videos/vid_missing/view", nil)
	req.SetPathValue("id", "vid_missing")
	rec := httptest.NewRecorder()
	h.RecordView(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWatchTimeAndStats(t *testing.T) {
	h, v := newAnalyticsHandler(t)

	req := jsonRequest(t, http.MethodPost, "/v1/videos/"+v.ID+"/watch", watchRequest{Seconds: 90})
	req.SetPathValue("id", v.ID)
	rec := httptest.NewRecorder()
	h.RecordWatchTime(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	statsReq := httptest.NewRequest(http.MethodGet, "/v1/videos/"+v.ID+"/stats", nil)
	statsReq.SetPathValue("id", v.ID)
	rec = httptest.NewRecorder()
	h.Stats(rec, statsReq)
	var resp statsResponse
	decodeResponse(t, rec, &resp)
	if resp.WatchSeconds != 90 {
		t.Errorf("watch_seconds = %d, want 90", resp.WatchSeconds)
	}
}
