package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/clipstream-go/clipstream/pkg/core/live"
	"github.com/clipstream-go/clipstream/pkg/core/pcm"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
)

// wsCaptureDevice adapts inbound websocket media frames to the capture
// device boundary: audio frames are buffered and re-sliced into fixed
// blocks for the block processor, and the latest video frame is held
// until the frame timer picks it up. A newer frame replaces an unread
// one; frames are never queued.
type wsCaptureDevice struct {
	mu        sync.Mutex
	handler   func([]float32)
	blockSize int
	pending   []float32

	frame     []byte
	frameMime string

	stopped bool
}

func newWSCaptureDevice() *wsCaptureDevice {
	return &wsCaptureDevice{}
}

func (d *wsCaptureDevice) StartAudio(blockSize int, handler func(samples []float32)) error {
	if blockSize <= 0 {
		return fmt.Errorf("block size must be > 0")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return fmt.Errorf("capture device is stopped")
	}
	d.blockSize = blockSize
	d.handler = handler
	return nil
}

// PushAudio feeds raw little-endian PCM16 from the client into the block
// processor. Complete blocks are delivered synchronously on the caller's
// goroutine, matching the hardware-cadence contract.
func (d *wsCaptureDevice) PushAudio(raw []byte) error {
	channels, err := pcm.PCM16ToFloat(raw, 1)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.handler == nil || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.pending = append(d.pending, channels[0]...)
	var blocks [][]float32
	for len(d.pending) >= d.blockSize {
		block := make([]float32, d.blockSize)
		copy(block, d.pending[:d.blockSize])
		d.pending = d.pending[d.blockSize:]
		blocks = append(blocks, block)
	}
	handler := d.handler
	d.mu.Unlock()

	for _, block := range blocks {
		handler(block)
	}
	return nil
}

// PushFrame stores the newest still image, replacing any unread one.
func (d *wsCaptureDevice) PushFrame(data []byte, mimeType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.frame = data
	d.frameMime = mimeType
}

func (d *wsCaptureDevice) CaptureFrame() (data []byte, mimeType string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		return nil, "", false
	}
	data, mimeType = d.frame, d.frameMime
	d.frame = nil
	d.frameMime = ""
	return data, mimeType, true
}

func (d *wsCaptureDevice) StopAudio() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = nil
	d.pending = nil
}

func (d *wsCaptureDevice) StopTracks() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = nil
	d.frameMime = ""
}

func (d *wsCaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.handler = nil
	d.pending = nil
	return nil
}

// wsOutputDevice adapts the playback boundary to the websocket: the
// session's scheduler keeps its gapless bookkeeping against a wall-clock
// epoch, while the PCM itself is forwarded to the client immediately as
// an audio_chunk frame. The client does its own buffering.
type wsOutputDevice struct {
	writer  *wsWriter
	metrics *metrics.Metrics
	epoch   time.Time

	mu     sync.Mutex
	seq    int64
	closed bool
}

func newWSOutputDevice(writer *wsWriter, m *metrics.Metrics) *wsOutputDevice {
	return &wsOutputDevice{writer: writer, metrics: m, epoch: time.Now()}
}

func (d *wsOutputDevice) CurrentTime() float64 {
	return time.Since(d.epoch).Seconds()
}

func (d *wsOutputDevice) Schedule(buf live.AudioBuffer, startTime float64) (live.PlaybackSource, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, fmt.Errorf("output device is closed")
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	if err := d.writer.writeAudioChunk(seq, buf.SampleRateHz, pcm.EncodeTransport(buf.PCM)); err != nil {
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.RecordLiveAudio("out", len(buf.PCM))
	}

	// The source completes when its slot on the playback clock elapses,
	// so the scheduler's active set mirrors client-side playback.
	remaining := time.Duration((startTime + buf.Duration() - d.CurrentTime()) * float64(time.Second))
	return newTimedSource(remaining), nil
}

func (d *wsOutputDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type timedSource struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func newTimedSource(d time.Duration) *timedSource {
	if d < 0 {
		d = 0
	}
	s := &timedSource{done: make(chan struct{})}
	s.timer = time.AfterFunc(d, s.complete)
	return s
}

func (s *timedSource) complete() {
	s.once.Do(func() { close(s.done) })
}

func (s *timedSource) Stop() {
	s.timer.Stop()
	s.complete()
}

func (s *timedSource) Done() <-chan struct{} {
	return s.done
}
