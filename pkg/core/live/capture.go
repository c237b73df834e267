package live

import (
	"sync"
	"time"

	"github.com/clipstream-go/clipstream/pkg/core/pcm"
)

// CapturePipeline turns live device input into outbound payloads on two
// independent cadences: audio blocks on the hardware pull rhythm, video
// frames on a fixed wall-clock timer.
type CapturePipeline struct {
	device        CaptureDevice
	blockSize     int
	frameInterval time.Duration
	videoEnabled  bool

	// onAudio receives each captured block as PCM16 bytes.
	onAudio func(pcmBytes []byte)
	// onFrame receives each encoded video frame snapshot.
	onFrame func(data []byte, mimeType string)

	mu           sync.Mutex
	started      bool
	frameStop    chan struct{}
	audioStopped bool
	tracksDone   bool
	closed       bool
}

// NewCapturePipeline wires a capture device to the given sinks. Sinks
// must be non-blocking or fast; they run on the device callback and
// frame timer goroutines.
func NewCapturePipeline(device CaptureDevice, cfg Config, onAudio func([]byte), onFrame func([]byte, string)) *CapturePipeline {
	cfg = cfg.withDefaults()
	return &CapturePipeline{
		device:        device,
		blockSize:     cfg.AudioBlockSize,
		frameInterval: cfg.VideoFrameInterval,
		videoEnabled:  cfg.EnableVideo,
		onAudio:       onAudio,
		onFrame:       onFrame,
	}
}

// Start registers the audio block processor and, when video is enabled,
// starts the frame timer.
func (p *CapturePipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return nil
	}

	err := p.device.StartAudio(p.blockSize, func(samples []float32) {
		if p.onAudio != nil {
			p.onAudio(pcm.FloatToPCM16(samples))
		}
	})
	if err != nil {
		return err
	}

	if p.videoEnabled {
		p.frameStop = make(chan struct{})
		go p.frameLoop(p.frameStop)
	}

	p.started = true
	return nil
}

// frameLoop samples a still frame at the configured cadence. A missed
// tick is dropped, never queued, and a not-ready source skips the tick.
func (p *CapturePipeline) frameLoop(stop chan struct{}) {
	ticker := time.NewTicker(p.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			data, mimeType, ok := p.device.CaptureFrame()
			if !ok {
				continue
			}
			if p.onFrame != nil {
				p.onFrame(data, mimeType)
			}
		}
	}
}

// Stop tears the pipeline down in order: frame timer, audio block
// processor, device tracks, device contexts. Every step is guarded so a
// second Stop, or a Stop after partial startup, is a no-op.
func (p *CapturePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frameStop != nil {
		close(p.frameStop)
		p.frameStop = nil
	}

	if !p.audioStopped {
		p.device.StopAudio()
		p.audioStopped = true
	}

	if !p.tracksDone {
		p.device.StopTracks()
		p.tracksDone = true
	}

	if !p.closed {
		_ = p.device.Close()
		p.closed = true
	}
}
