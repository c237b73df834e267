package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/store"
)

func TestPurchaseCompletesAfterDelay(t *testing.T) {
	s := store.New()
	h := PurchasesHandler{
		Config:  testConfig(t),
		Store:   s,
		Metrics: metrics.New("test"),
		Logger:  testLogger(),
	}

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/v1/purchases", createPurchaseRequest{
		Plan:        "premium-monthly",
		AmountCents: 999,
	}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var created store.Purchase
	decodeResponse(t, rec, &created)
	if created.Status != store.PurchasePending {
		t.Fatalf("status = %s, want pending", created.Status)
	}

	waitFor(t, func() bool {
		p, err := s.GetPurchase(created.ID)
		return err == nil && p.Status == store.PurchaseCompleted
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/purchases/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	var fetched store.Purchase
	decodeResponse(t, rec, &fetched)
	if fetched.Status != store.PurchaseCompleted || fetched.CompletedAt == nil {
		t.Errorf("fetched = %+v, want completed", fetched)
	}
}

func TestPurchaseValidation(t *testing.T) {
	h := PurchasesHandler{Config: testConfig(t), Store: store.New(), Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/v1/purchases", createPurchaseRequest{Plan: ""}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPurchaseGetNotFound(t *testing.T) {
	h := PurchasesHandler{Config: testConfig(t), Store: store.New(), Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/v1/purchases/pur_missing", nil)
	req.SetPathValue("id", "pur_missing")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
