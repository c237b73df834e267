package handlers

import (
	"net/http"

	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

// AnalyticsHandler records and serves per-video view counters backed by
// the analytics JSON blob.
type AnalyticsHandler struct {
	Config    config.Config
	Store     *store.Store
	Analytics *store.AnalyticsStore
	Metrics   *metrics.Metrics
}

type viewResponse struct {
	VideoID string `json:"video_id"`
	Views   int64  `json:"views"`
}

func (h AnalyticsHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Store.GetVideo(id); err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.Analytics.RecordView(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.VideoViewsTotal.Inc()
	}
	writeJSON(w, http.StatusOK, viewResponse{VideoID: id, Views: views})
}

type watchRequest struct {
	Seconds int64 `json:"seconds"`
}

func (h AnalyticsHandler) RecordWatchTime(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Store.GetVideo(id); err != nil {
		writeError(w, r, err)
		return
	}
	var req watchRequest
	if err := decodeBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Analytics.AddWatchTime(id, req.Seconds); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.statsFor(id))
}

func (h AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.Store.GetVideo(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.statsFor(id))
}

type statsResponse struct {
	VideoID      string `json:"video_id"`
	Views        int64  `json:"views"`
	WatchSeconds int64  `json:"watch_seconds"`
}

func (h AnalyticsHandler) statsFor(id string) statsResponse {
	st := h.Analytics.Stats(id)
	return statsResponse{VideoID: id, Views: st.Views, WatchSeconds: st.WatchSeconds}
}
