package live

import (
	"sync"

	"github.com/clipstream-go/clipstream/pkg/core/pcm"
)

// AudioBuffer is one decoded chunk of assistant audio ready to play.
type AudioBuffer struct {
	// PCM is 16-bit little-endian mono audio.
	PCM []byte
	// SampleRateHz is the playback rate of PCM.
	SampleRateHz int
}

// Duration returns the buffer length in seconds.
func (b AudioBuffer) Duration() float64 {
	return pcm.Duration(b.PCM, b.SampleRateHz)
}

// Scheduler serializes decoded audio buffers, which arrive in bursts out
// of sync with real time, into continuous non-overlapping playback on a
// single output clock. Each buffer starts at the later of the previous
// buffer's end and the clock's current position, so playback is gapless
// and ordered no matter how arrival times jitter.
type Scheduler struct {
	device OutputDevice

	mu            sync.Mutex
	nextStartTime float64
	active        map[PlaybackSource]struct{}
}

// NewScheduler creates a scheduler on device. nextStartTime starts at
// zero, which resolves to "the clock's current time" on first use.
func NewScheduler(device OutputDevice) *Scheduler {
	return &Scheduler{
		device: device,
		active: make(map[PlaybackSource]struct{}),
	}
}

// Enqueue schedules buf for gapless playback and returns its start time
// on the device clock. Completed sources remove themselves from the
// active set.
func (s *Scheduler) Enqueue(buf AudioBuffer) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := s.nextStartTime
	if now := s.device.CurrentTime(); now > startTime {
		startTime = now
	}

	src, err := s.device.Schedule(buf, startTime)
	if err != nil {
		return 0, err
	}
	s.active[src] = struct{}{}
	s.nextStartTime = startTime + buf.Duration()

	go func() {
		<-src.Done()
		s.mu.Lock()
		delete(s.active, src)
		s.mu.Unlock()
	}()

	return startTime, nil
}

// StopAll halts every scheduled or playing source immediately and resets
// the schedule, used on interruption and session teardown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	sources := make([]PlaybackSource, 0, len(s.active))
	for src := range s.active {
		sources = append(sources, src)
	}
	s.active = make(map[PlaybackSource]struct{})
	s.nextStartTime = 0
	s.mu.Unlock()

	for _, src := range sources {
		src.Stop()
	}
}

// ActiveCount reports how many sources are scheduled or playing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
