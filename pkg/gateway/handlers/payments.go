package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

// PurchasesHandler implements the mock checkout: a purchase is created
// pending and flips to completed after a fixed delay. No payment
// processor is called. Clients poll GET /v1/purchases/{id}.
type PurchasesHandler struct {
	Config  config.Config
	Store   *store.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type createPurchaseRequest struct {
	Plan        string `json:"plan"`
	AmountCents int64  `json:"amount_cents"`
}

func (h PurchasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := decodeBody(w, r, h.Config.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Store.CreatePurchase(req.Plan, req.AmountCents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.PurchasesTotal.WithLabelValues(string(store.PurchasePending)).Inc()
	}

	delay := h.Config.PaymentProcessingDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	time.AfterFunc(delay, func() {
		if err := h.Store.CompletePurchase(p.ID); err != nil {
			if h.Logger != nil {
				h.Logger.Warn("complete purchase", "purchase_id", p.ID, "error", err)
			}
			return
		}
		if h.Metrics != nil {
			h.Metrics.PurchasesTotal.WithLabelValues(string(store.PurchaseCompleted)).Inc()
		}
	})

	writeJSON(w, http.StatusAccepted, p)
}

func (h PurchasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPurchase(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
