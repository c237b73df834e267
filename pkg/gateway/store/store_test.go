package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipstream-go/clipstream/pkg/core"
)

func TestAddAndListVideos(t *testing.T) {
	s := New()
	v1, err := s.AddVideo(Video{Title: "first", Channel: "ch"})
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}
	v2, err := s.AddVideo(Video{Title: "second", Channel: "ch"})
	if err != nil {
		t.Fatalf("AddVideo: %v", err)
	}

	got := s.ListVideos()
	if len(got) != 2 {
		t.Fatalf("ListVideos returned %d videos, want 2", len(got))
	}
	if got[0].ID != v1.ID || got[1].ID != v2.ID {
		t.Errorf("list order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, v1.ID, v2.ID)
	}
	if got[0].UploadedAt.IsZero() {
		t.Error("UploadedAt not set")
	}
}

func TestAddVideoValidation(t *testing.T) {
	s := New()
	_, err := s.AddVideo(Video{Channel: "ch"})
	var cerr *core.Error
	if !errors.As(err, &cerr) || cerr.Type != core.ErrInvalidRequest {
		t.Fatalf("err = %v, want invalid_request", err)
	}
	if cerr.Param != "title" {
		t.Errorf("param = %q, want title", cerr.Param)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	s := New()
	_, err := s.GetVideo("vid_nope")
	var cerr *core.Error
	if !errors.As(err, &cerr) || cerr.Type != core.ErrNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestToggleLike(t *testing.T) {
	s := New()
	v, _ := s.AddVideo(Video{Title: "t", Channel: "ch"})

	liked, count, err := s.ToggleLike(v.ID, "alice")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !liked || count != 1 {
		t.Errorf("first toggle = (%v, %d), want (true, 1)", liked, count)
	}

	liked, count, _ = s.ToggleLike(v.ID, "bob")
	if !liked || count != 2 {
		t.Errorf("second user toggle = (%v, %d), want (true, 2)", liked, count)
	}

	liked, count, _ = s.ToggleLike(v.ID, "alice")
	if liked || count != 1 {
		t.Errorf("untoggle = (%v, %d), want (false, 1)", liked, count)
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	s := New()
	v, _ := s.AddVideo(Video{Title: "t", Channel: "ch"})

	if _, err := s.AddComment(v.ID, "a", "older"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := s.AddComment(v.ID, "", "newer"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	got, err := s.ListComments(v.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Text != "newer" {
		t.Errorf("first comment = %q, want newer", got[0].Text)
	}
	if got[1].Author != "a" || got[0].Author != "anonymous" {
		t.Errorf("authors = [%q %q]", got[0].Author, got[1].Author)
	}
}

func TestToggleSubscription(t *testing.T) {
	s := New()
	sub, err := s.ToggleSubscription("brewlab", "alice")
	if err != nil || !sub {
		t.Fatalf("first toggle = (%v, %v), want (true, nil)", sub, err)
	}
	sub, _ = s.ToggleSubscription("brewlab", "alice")
	if sub {
		t.Error("second toggle should unsubscribe")
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	s := New()
	p, err := s.CreatePurchase("premium-monthly", 999)
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if p.Status != PurchasePending {
		t.Fatalf("status = %s, want pending", p.Status)
	}

	if err := s.CompletePurchase(p.ID); err != nil {
		t.Fatalf("CompletePurchase: %v", err)
	}
	got, _ := s.GetPurchase(p.ID)
	if got.Status != PurchaseCompleted || got.CompletedAt == nil {
		t.Errorf("purchase = %+v, want completed with timestamp", got)
	}

	// Completing again is a no-op.
	if err := s.CompletePurchase(p.ID); err != nil {
		t.Errorf("repeat complete: %v", err)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	s := New()
	if _, err := s.CreatePurchase("", 999); err == nil {
		t.Error("expected error for empty plan")
	}
	if _, err := s.CreatePurchase("p", 0); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestSeedDemo(t *testing.T) {
	s := New()
	s.SeedDemo()
	if got := len(s.ListVideos()); got == 0 {
		t.Error("seed produced no videos")
	}
}

func TestAnalyticsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.json")

	a, err := OpenAnalytics(path)
	if err != nil {
		t.Fatalf("OpenAnalytics: %v", err)
	}
	if n, err := a.RecordView("vid_1"); err != nil || n != 1 {
		t.Fatalf("RecordView = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := a.RecordView("vid_1"); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if err := a.AddWatchTime("vid_1", 42); err != nil {
		t.Fatalf("AddWatchTime: %v", err)
	}

	// Reopen from disk and verify the counters survived.
	b, err := OpenAnalytics(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st := b.Stats("vid_1")
	if st.Views != 2 || st.WatchSeconds != 42 {
		t.Errorf("stats = %+v, want views=2 watch=42", st)
	}
	if st := b.Stats("vid_unknown"); st.Views != 0 {
		t.Errorf("unknown video stats = %+v, want zero", st)
	}
}

func TestAnalyticsRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenAnalytics(path); err == nil {
		t.Error("expected parse error for corrupt file")
	}
}
