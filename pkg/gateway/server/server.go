// Package server wires the gateway's stores, metrics, and handlers into
// one http.Handler.
package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clipstream-go/clipstream/pkg/core/backend"
	"github.com/clipstream-go/clipstream/pkg/core/backend/gemini"
	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/handlers"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/mw"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	store     *store.Store
	analytics *store.AnalyticsStore
	metrics   *metrics.Metrics
	connector backend.Connector
	liveSlots chan struct{}
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	analytics, err := store.OpenAnalytics(cfg.AnalyticsPath)
	if err != nil {
		return nil, err
	}

	st := store.New()
	if cfg.SeedDemoData {
		st.SeedDemo()
	}

	var connector backend.Connector
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		connector = &gemini.Connector{APIKey: cfg.GeminiAPIKey}
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		store:     st,
		analytics: analytics,
		metrics:   metrics.New(cfg.MetricsNamespace),
		connector: connector,
		liveSlots: handlers.NewLiveSlots(cfg.LiveMaxSessions),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})
	s.mux.Handle("/metrics", s.metrics.Handler())

	videos := handlers.VideosHandler{
		Config:  s.cfg,
		Store:   s.store,
		Metrics: s.metrics,
		Logger:  s.logger,
	}
	s.mux.HandleFunc("GET /v1/videos", videos.List)
	s.mux.HandleFunc("POST /v1/videos", videos.Create)
	s.mux.HandleFunc("GET /v1/videos/{id}", videos.Get)
	s.mux.HandleFunc("POST /v1/videos/{id}/like", videos.ToggleLike)
	s.mux.HandleFunc("GET /v1/videos/{id}/comments", videos.ListComments)
	s.mux.HandleFunc("POST /v1/videos/{id}/comments", videos.CreateComment)
	s.mux.HandleFunc("POST /v1/subscriptions", videos.ToggleSubscription)

	purchases := handlers.PurchasesHandler{
		Config:  s.cfg,
		Store:   s.store,
		Metrics: s.metrics,
		Logger:  s.logger,
	}
	s.mux.HandleFunc("POST /v1/purchases", purchases.Create)
	s.mux.HandleFunc("GET /v1/purchases/{id}", purchases.Get)

	analytics := handlers.AnalyticsHandler{
		Config:    s.cfg,
		Store:     s.store,
		Analytics: s.analytics,
		Metrics:   s.metrics,
	}
	s.mux.HandleFunc("POST /v1/videos/{id}/view", analytics.RecordView)
	s.mux.HandleFunc("POST /v1/videos/{id}/watch", analytics.RecordWatchTime)
	s.mux.HandleFunc("GET /v1/videos/{id}/stats", analytics.Stats)

	s.mux.Handle("/v1/live", handlers.LiveHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Connector: s.connector,
		Slots:     s.liveSlots,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Metrics(s.metrics, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
