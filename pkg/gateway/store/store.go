// Package store holds the gateway's platform state: the video catalog,
// comments, likes, subscriptions, and mock purchases. Everything lives in
// memory behind one mutex; view counters persist separately as a JSON
// blob (see AnalyticsStore).
package store

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/clipstream-go/clipstream/pkg/core"
)

// Video is catalog metadata only. Quality labels and ad markers are
// cosmetic; there is no transcoding behind them.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Channel         string    `json:"channel"`
	DurationSeconds int       `json:"duration_seconds"`
	Qualities       []string  `json:"qualities"`
	UploadedAt      time.Time `json:"uploaded_at"`
	Likes           int       `json:"likes"`
}

type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PurchaseStatus is the mock checkout lifecycle.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
)

type Purchase struct {
	ID          string         `json:"id"`
	Plan        string         `json:"plan"`
	AmountCents int64          `json:"amount_cents"`
	Status      PurchaseStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

type Store struct {
	mu sync.Mutex

	videos     map[string]*Video
	videoOrder []string
	comments   map[string][]Comment       // video id -> comments
	likes      map[string]map[string]bool // video id -> user id -> liked
	subs       map[string]map[string]bool // channel -> user id -> subscribed
	purchases  map[string]*Purchase
	now        func() time.Time
}

func New() *Store {
	return &Store{
		videos:    make(map[string]*Video),
		comments:  make(map[string][]Comment),
		likes:     make(map[string]map[string]bool),
		subs:      make(map[string]map[string]bool),
		purchases: make(map[string]*Purchase),
		now:       time.Now,
	}
}

// SeedDemo loads the built-in demo catalog.
func (s *Store) SeedDemo() {
	demos := []Video{
		{Title: "Getting Started With Home Espresso", Channel: "brewlab", DurationSeconds: 612, Description: "Dialing in a grinder on a budget."},
		{Title: "City Night Ride POV", Channel: "pedalcam", DurationSeconds: 1431, Description: "Unedited commute footage."},
		{Title: "Sourdough Mistakes I Keep Making", Channel: "brewlab", DurationSeconds: 845, Description: "Five fails and what fixed them."},
	}
	for i := range demos {
		v := demos[i]
		v.Qualities = []string{"1080p", "720p", "480p"}
		_, _ = s.AddVideo(v)
	}
}

// AddVideo registers video metadata and returns the stored copy.
func (s *Store) AddVideo(v Video) (Video, error) {
	if v.Title == "" {
		return Video{}, core.NewInvalidRequestErrorWithParam("title is required", "title")
	}
	if v.Channel == "" {
		return Video{}, core.NewInvalidRequestErrorWithParam("channel is required", "channel")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = "vid_" + randHex(8)
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = s.now()
	}
	if len(v.Qualities) == 0 {
		v.Qualities = []string{"720p"}
	}
	stored := v
	s.videos[v.ID] = &stored
	s.videoOrder = append(s.videoOrder, v.ID)
	return stored, nil
}

// ListVideos returns the catalog in upload order, newest last.
func (s *Store) ListVideos() []Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Video, 0, len(s.videoOrder))
	for _, id := range s.videoOrder {
		out = append(out, *s.videos[id])
	}
	return out
}

func (s *Store) GetVideo(id string) (Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return Video{}, core.NewNotFoundError("video not found")
	}
	return *v, nil
}

// ToggleLike flips the user's like on a video and returns the new liked
// flag plus the total like count.
func (s *Store) ToggleLike(videoID, userID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return false, 0, core.NewNotFoundError("video not found")
	}
	users := s.likes[videoID]
	if users == nil {
		users = make(map[string]bool)
		s.likes[videoID] = users
	}
	liked := !users[userID]
	users[userID] = liked
	if liked {
		v.Likes++
	} else {
		v.Likes--
	}
	return liked, v.Likes, nil
}

func (s *Store) AddComment(videoID, author, text string) (Comment, error) {
	if text == "" {
		return Comment{}, core.NewInvalidRequestErrorWithParam("text is required", "text")
	}
	if author == "" {
		author = "anonymous"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[videoID]; !ok {
		return Comment{}, core.NewNotFoundError("video not found")
	}
	c := Comment{
		ID:        "cmt_" + randHex(8),
		VideoID:   videoID,
		Author:    author,
		Text:      text,
		CreatedAt: s.now(),
	}
	s.comments[videoID] = append(s.comments[videoID], c)
	return c, nil
}

// ListComments returns a video's comments newest first.
func (s *Store) ListComments(videoID string) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[videoID]; !ok {
		return nil, core.NewNotFoundError("video not found")
	}
	out := append([]Comment(nil), s.comments[videoID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ToggleSubscription flips the user's subscription to a channel and
// returns the new subscribed flag.
func (s *Store) ToggleSubscription(channel, userID string) (bool, error) {
	if channel == "" {
		return false, core.NewInvalidRequestErrorWithParam("channel is required", "channel")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.subs[channel]
	if users == nil {
		users = make(map[string]bool)
		s.subs[channel] = users
	}
	subscribed := !users[userID]
	users[userID] = subscribed
	return subscribed, nil
}

// CreatePurchase records a pending mock purchase. No payment processor
// is involved; completion is driven by a timer in the handler layer.
func (s *Store) CreatePurchase(plan string, amountCents int64) (Purchase, error) {
	if plan == "" {
		return Purchase{}, core.NewInvalidRequestErrorWithParam("plan is required", "plan")
	}
	if amountCents <= 0 {
		return Purchase{}, core.NewInvalidRequestErrorWithParam("amount must be positive", "amount_cents")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Purchase{
		ID:          "pur_" + randHex(8),
		Plan:        plan,
		AmountCents: amountCents,
		Status:      PurchasePending,
		CreatedAt:   s.now(),
	}
	s.purchases[p.ID] = &p
	return p, nil
}

// CompletePurchase flips a pending purchase to completed. Completing an
// already-completed purchase is a no-op.
func (s *Store) CompletePurchase(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return core.NewNotFoundError("purchase not found")
	}
	if p.Status == PurchaseCompleted {
		return nil
	}
	done := s.now()
	p.Status = PurchaseCompleted
	p.CompletedAt = &done
	return nil
}

func (s *Store) GetPurchase(id string) (Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return Purchase{}, core.NewNotFoundError("purchase not found")
	}
	return *p, nil
}

func randHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))
	}
	return hex.EncodeToString(b)
}
