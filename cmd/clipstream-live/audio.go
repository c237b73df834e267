package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gen2brain/malgo"

	"github.com/clipstream-go/clipstream/pkg/core/live"
	"github.com/clipstream-go/clipstream/pkg/core/pcm"
)

// micCapture drives the microphone through malgo and feeds fixed-size
// sample blocks to the session's block processor. There is no camera in
// the terminal client, so CaptureFrame never reports a frame.
type micCapture struct {
	sampleRateHz int

	mu        sync.Mutex
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	handler   func([]float32)
	blockSize int
	pending   []float32
	closed    bool
}

func newMicCapture(sampleRateHz int) (*micCapture, error) {
	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &micCapture{sampleRateHz: sampleRateHz, ctx: ctx}, nil
}

func (m *micCapture) StartAudio(blockSize int, handler func(samples []float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("capture device is closed")
	}
	if m.device != nil {
		return fmt.Errorf("audio capture already started")
	}
	m.blockSize = blockSize
	m.handler = handler

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.sampleRateHz)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.onInput(input)
		},
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init microphone: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start microphone: %w", err)
	}
	m.device = device
	return nil
}

// onInput runs on the hardware capture callback: samples accumulate
// until a full block is ready for the handler.
func (m *micCapture) onInput(input []byte) {
	channels, err := pcm.PCM16ToFloat(input, 1)
	if err != nil {
		return
	}

	m.mu.Lock()
	if m.handler == nil {
		m.mu.Unlock()
		return
	}
	m.pending = append(m.pending, channels[0]...)
	var blocks [][]float32
	for len(m.pending) >= m.blockSize {
		block := make([]float32, m.blockSize)
		copy(block, m.pending[:m.blockSize])
		m.pending = m.pending[m.blockSize:]
		blocks = append(blocks, block)
	}
	handler := m.handler
	m.mu.Unlock()

	for _, block := range blocks {
		handler(block)
	}
}

func (m *micCapture) StopAudio() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = nil
	m.pending = nil
}

func (m *micCapture) CaptureFrame() (data []byte, mimeType string, ok bool) {
	return nil, "", false
}

func (m *micCapture) StopTracks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
}

func (m *micCapture) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}

// speakerOutput plays scheduled buffers through oto. oto pulls PCM from
// the shared buffer via Read; the playback clock is the wall clock since
// device creation, which the session's scheduler keys its gapless
// bookkeeping off.
type speakerOutput struct {
	sampleRateHz int
	epoch        time.Time

	mu      sync.Mutex
	cond    *sync.Cond
	otoCtx  *oto.Context
	player  *oto.Player
	buf     []byte
	playing bool
	closed  bool
}

func newSpeakerOutput(sampleRateHz int) (*speakerOutput, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRateHz,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms buffer keeps latency low without glitching.
		BufferSize: sampleRateHz / 10 * pcm.BytesPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	s := &speakerOutput{
		sampleRateHz: sampleRateHz,
		epoch:        time.Now(),
		otoCtx:       otoCtx,
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

func (s *speakerOutput) CurrentTime() float64 {
	return time.Since(s.epoch).Seconds()
}

func (s *speakerOutput) Schedule(buf live.AudioBuffer, startTime float64) (live.PlaybackSource, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("output device is closed")
	}
	s.buf = append(s.buf, buf.PCM...)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.cond.Signal()
	s.mu.Unlock()

	remaining := time.Duration((startTime + buf.Duration() - s.CurrentTime()) * float64(time.Second))
	return newSpeakerSource(s, remaining), nil
}

// Read implements io.Reader for the oto player pull loop.
func (s *speakerOutput) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed && len(s.buf) == 0 {
		// Feed silence so oto drains without error.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// flush discards buffered audio and resets the player so stale audio
// does not overlap whatever plays next.
func (s *speakerOutput) flush() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	player := s.player
	playing := s.playing
	s.player = nil
	s.playing = false
	s.mu.Unlock()

	if player != nil && playing {
		player.Pause()
		_ = player.Reset()
		_ = player.Close()
	}
}

func (s *speakerOutput) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	player := s.player
	s.player = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if player != nil {
		_ = player.Close()
	}
	return nil
}

// speakerSource ties one scheduled buffer to the playback clock: done
// when its slot elapses, and an early Stop flushes the speaker.
type speakerSource struct {
	speaker *speakerOutput
	timer   *time.Timer
	done    chan struct{}
	once    sync.Once
}

func newSpeakerSource(speaker *speakerOutput, d time.Duration) *speakerSource {
	if d < 0 {
		d = 0
	}
	src := &speakerSource{speaker: speaker, done: make(chan struct{})}
	src.timer = time.AfterFunc(d, src.complete)
	return src
}

func (s *speakerSource) complete() {
	s.once.Do(func() { close(s.done) })
}

func (s *speakerSource) Stop() {
	s.timer.Stop()
	s.speaker.flush()
	s.complete()
}

func (s *speakerSource) Done() <-chan struct{} {
	return s.done
}
