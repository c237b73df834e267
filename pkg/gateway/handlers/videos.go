package handlers

import (
	"log/slog"
	"net/http"

	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

// VideosHandler serves the catalog, likes, comments, and subscriptions.
type VideosHandler struct {
	Config  config.Config
	Store   *store.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type videoListResponse struct {
	Videos []store.Video `json:"videos"`
}

func (h VideosHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, videoListResponse{Videos: h.Store.ListVideos()})
}

type createVideoRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Channel         string   `json:"channel"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	Qualities       []string `json:"qualities,omitempty"`
}

func (h VideosHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := decodeBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.Store.AddVideo(store.Video{
		Title:           req.Title,
		Description:     req.Description,
		Channel:         req.Channel,
		DurationSeconds: req.DurationSeconds,
		Qualities:       req.Qualities,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h VideosHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Store.GetVideo(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type likeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

func (h VideosHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, likes, err := h.Store.ToggleLike(r.PathValue("id"), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: likes})
}

type commentListResponse struct {
	Comments []store.Comment `json:"comments"`
}

func (h VideosHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Store.ListComments(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commentListResponse{Comments: comments})
}

type createCommentRequest struct {
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

func (h VideosHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	author := req.Author
	if author == "" {
		author = userFrom(r)
	}
	c, err := h.Store.AddComment(r.PathValue("id"), author, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type subscribeRequest struct {
	Channel string `json:"channel"`
}

type subscribeResponse struct {
	Channel    string `json:"channel"`
	Subscribed bool   `json:"subscribed"`
}

func (h VideosHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	subscribed, err := h.Store.ToggleSubscription(req.Channel, userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscribeResponse{Channel: req.Channel, Subscribed: subscribed})
}
