package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// VideoStats are the per-video counters the analytics blob tracks.
type VideoStats struct {
	Views        int64 `json:"views"`
	WatchSeconds int64 `json:"watch_seconds"`
}

type analyticsBlob struct {
	VideoAnalytics map[string]VideoStats `json:"videoAnalytics"`
}

// AnalyticsStore persists view counters as a single JSON file. Every
// mutation rewrites the whole blob; the data set is small and the write
// is atomic via rename.
type AnalyticsStore struct {
	mu   sync.Mutex
	path string
	data map[string]VideoStats
}

// OpenAnalytics loads counters from path, starting empty when the file
// does not exist yet.
func OpenAnalytics(path string) (*AnalyticsStore, error) {
	if path == "" {
		return nil, fmt.Errorf("analytics path is required")
	}
	a := &AnalyticsStore{path: path, data: make(map[string]VideoStats)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analytics file: %w", err)
	}
	var blob analyticsBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("parse analytics file %s: %w", path, err)
	}
	if blob.VideoAnalytics != nil {
		a.data = blob.VideoAnalytics
	}
	return a, nil
}

// RecordView increments a video's view counter and returns the new count.
func (a *AnalyticsStore) RecordView(videoID string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.data[videoID]
	st.Views++
	a.data[videoID] = st
	if err := a.persistLocked(); err != nil {
		return 0, err
	}
	return st.Views, nil
}

// AddWatchTime accumulates watched seconds for a video.
func (a *AnalyticsStore) AddWatchTime(videoID string, seconds int64) error {
	if seconds <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.data[videoID]
	st.WatchSeconds += seconds
	a.data[videoID] = st
	return a.persistLocked()
}

// Stats returns the counters for one video; zero stats when unknown.
func (a *AnalyticsStore) Stats(videoID string) VideoStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data[videoID]
}

// Snapshot returns a copy of all counters.
func (a *AnalyticsStore) Snapshot() map[string]VideoStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]VideoStats, len(a.data))
	for k, v := range a.data {
		out[k] = v
	}
	return out
}

func (a *AnalyticsStore) persistLocked() error {
	raw, err := json.MarshalIndent(analyticsBlob{VideoAnalytics: a.data}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analytics: %w", err)
	}
	tmp := a.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create analytics dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write analytics file: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("replace analytics file: %w", err)
	}
	return nil
}
