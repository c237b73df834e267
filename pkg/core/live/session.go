package live

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/clipstream-go/clipstream/pkg/core"
	"github.com/clipstream-go/clipstream/pkg/core/backend"
	"github.com/clipstream-go/clipstream/pkg/core/pcm"
)

// Deps are the boundary collaborators a session acquires fresh on every
// Start. Device constructors run at start time so a denied permission
// surfaces per attempt, not at session construction.
type Deps struct {
	Connector        backend.Connector
	NewCaptureDevice func() (CaptureDevice, error)
	NewOutputDevice  func(sampleRateHz int) (OutputDevice, error)
}

// Session orchestrates one live chat: connection lifecycle, the capture
// pipeline, transcript accumulation, and playback scheduling. States move
// disconnected -> connecting -> connected -> {disconnected | error};
// error and disconnected are terminal for a given run, and a new Start
// always tears the previous run down first.
type Session struct {
	cfg  Config
	deps Deps

	events chan Event

	mu         sync.Mutex
	state      State
	transcript []Turn
	userBuf    strings.Builder
	asstBuf    strings.Builder

	stream    backend.Stream
	pipeline  *CapturePipeline
	scheduler *Scheduler
	output    OutputDevice
}

// NewSession creates an idle session. Call Start to connect.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Connector == nil {
		return nil, core.NewInvalidRequestError("connector is required")
	}
	if deps.NewCaptureDevice == nil {
		return nil, core.NewInvalidRequestError("capture device constructor is required")
	}
	if deps.NewOutputDevice == nil {
		return nil, core.NewInvalidRequestError("output device constructor is required")
	}
	return &Session{
		cfg:    cfg.withDefaults(),
		deps:   deps,
		events: make(chan Event, 100),
		state:  StateDisconnected,
	}, nil
}

// Events yields session events for the UI layer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the committed transcript log.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.transcript...)
}

// Start acquires devices, opens the backend connection, and begins
// capture. Any active prior run is fully stopped first; a device or
// connection failure moves the session to the error state without
// retrying.
func (s *Session) Start(ctx context.Context) error {
	// One active capture pipeline and one active connection per
	// session: tear down any previous run before touching devices.
	s.Stop()

	s.setState(StateConnecting)

	capture, err := s.deps.NewCaptureDevice()
	if err != nil {
		return s.fail(core.NewPermissionError("capture device unavailable: " + err.Error()))
	}

	output, err := s.deps.NewOutputDevice(s.cfg.OutputSampleRateHz)
	if err != nil {
		capture.StopTracks()
		_ = capture.Close()
		return s.fail(core.NewPermissionError("output device unavailable: " + err.Error()))
	}

	stream, err := s.deps.Connector.Connect(ctx, backend.ConnectConfig{
		Model:              s.cfg.Model,
		Voice:              s.cfg.Voice,
		SystemInstruction:  s.cfg.SystemInstruction,
		InputSampleRateHz:  s.cfg.InputSampleRateHz,
		OutputSampleRateHz: s.cfg.OutputSampleRateHz,
	})
	if err != nil {
		capture.StopTracks()
		_ = capture.Close()
		_ = output.Close()
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			return s.fail(coreErr)
		}
		return s.fail(core.NewConnectionError("connect failed", err))
	}

	pipeline := NewCapturePipeline(capture, s.cfg,
		func(pcmBytes []byte) { s.sendAudio(stream, pcmBytes) },
		func(data []byte, mimeType string) { s.sendFrame(stream, data, mimeType) },
	)

	s.mu.Lock()
	s.stream = stream
	s.output = output
	s.scheduler = NewScheduler(output)
	s.pipeline = pipeline
	s.mu.Unlock()

	if err := pipeline.Start(); err != nil {
		s.mu.Lock()
		s.stream = nil
		s.pipeline = nil
		s.scheduler = nil
		s.output = nil
		s.mu.Unlock()
		s.teardown(stream, pipeline, nil, output)
		return s.fail(core.NewPermissionError("start capture: " + err.Error()))
	}

	s.setState(StateConnected)
	go s.eventLoop(stream)
	return nil
}

// Stop closes the connection and tears down capture and playback. It is
// the sole cancellation path: safe in every state, idempotent, and a
// no-op before Start. Partial transcript text not yet committed by a
// turn-complete marker is discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	stream := s.stream
	pipeline := s.pipeline
	scheduler := s.scheduler
	output := s.output
	s.stream = nil
	s.pipeline = nil
	s.scheduler = nil
	s.output = nil
	s.userBuf.Reset()
	s.asstBuf.Reset()
	wasActive := s.state == StateConnecting || s.state == StateConnected
	if wasActive {
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	s.teardown(stream, pipeline, scheduler, output)

	if wasActive {
		s.emit(StateChangedEvent{State: StateDisconnected})
	}
}

// teardown releases one run's resources: connection first so the event
// loop drains, then capture, then playback.
func (s *Session) teardown(stream backend.Stream, pipeline *CapturePipeline, scheduler *Scheduler, output OutputDevice) {
	if stream != nil {
		_ = stream.Close()
	}
	if pipeline != nil {
		pipeline.Stop()
	}
	if scheduler != nil {
		scheduler.StopAll()
	}
	if output != nil {
		_ = output.Close()
	}
}

func (s *Session) fail(err *core.Error) error {
	s.mu.Lock()
	s.state = StateError
	s.userBuf.Reset()
	s.asstBuf.Reset()
	s.mu.Unlock()
	s.emit(SessionErrorEvent{Err: err})
	s.emit(StateChangedEvent{State: StateError})
	return err
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.emit(StateChangedEvent{State: state})
}

func (s *Session) sendAudio(stream backend.Stream, pcmBytes []byte) {
	// Fire and forget: capture cadence must not stall on the network.
	err := stream.SendMedia(backend.MediaChunk{
		Data:     pcm.EncodeTransport(pcmBytes),
		MimeType: audioInputMimeType,
	})
	if err != nil {
		s.debug("send", "audio chunk dropped: "+err.Error())
	}
}

func (s *Session) sendFrame(stream backend.Stream, data []byte, mimeType string) {
	err := stream.SendMedia(backend.MediaChunk{
		Data:     pcm.EncodeTransport(data),
		MimeType: mimeType,
	})
	if err != nil {
		s.debug("send", "video frame dropped: "+err.Error())
	}
}

// eventLoop processes inbound events one at a time in arrival order.
func (s *Session) eventLoop(stream backend.Stream) {
	for ev := range stream.Events() {
		if !s.isCurrent(stream) {
			return
		}
		switch e := ev.(type) {
		case backend.InputTranscriptEvent:
			s.appendDelta(AuthorUser, e.Text)
		case backend.OutputTranscriptEvent:
			s.appendDelta(AuthorAssistant, e.Text)
		case backend.TurnCompleteEvent:
			s.commitTurn()
		case backend.AudioEvent:
			s.enqueueAudio(e)
		case backend.InterruptedEvent:
			s.flushPlayback()
		case backend.GoAwayEvent:
			s.debug("connection", "backend going away: "+e.TimeLeft)
		case backend.ErrorEvent:
			if e.Code == "codec_error" {
				// Malformed frames are dropped; the session continues.
				s.debug("codec", e.Message)
				continue
			}
			s.handleConnectionError(stream, e)
			return
		case backend.ClosedEvent:
			s.handleClosed(stream)
			return
		}
	}
	// Channel closed without a close event: treat as a remote close.
	if s.isCurrent(stream) {
		s.handleClosed(stream)
	}
}

// appendDelta accumulates partial transcript text into the per-speaker
// buffer. Text is added exactly once, on delta arrival; the turn-complete
// handler only flushes, so no delta can be counted twice.
func (s *Session) appendDelta(author Author, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	switch author {
	case AuthorUser:
		s.userBuf.WriteString(text)
	case AuthorAssistant:
		s.asstBuf.WriteString(text)
	}
	s.mu.Unlock()
	s.emit(TranscriptDeltaEvent{Author: author, Text: text})
}

// commitTurn flushes the accumulated buffers onto the transcript log as
// a user turn followed by an assistant turn, then clears both.
func (s *Session) commitTurn() {
	s.mu.Lock()
	var turns []Turn
	if text := s.userBuf.String(); text != "" {
		turns = append(turns, Turn{Author: AuthorUser, Text: text})
	}
	if text := s.asstBuf.String(); text != "" {
		turns = append(turns, Turn{Author: AuthorAssistant, Text: text})
	}
	s.userBuf.Reset()
	s.asstBuf.Reset()
	s.transcript = append(s.transcript, turns...)
	s.mu.Unlock()

	if len(turns) > 0 {
		s.emit(TurnCommittedEvent{Turns: turns})
	}
}

func (s *Session) enqueueAudio(e backend.AudioEvent) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}
	buf := AudioBuffer{PCM: e.PCM, SampleRateHz: e.SampleRateHz}
	if buf.SampleRateHz <= 0 {
		buf.SampleRateHz = s.cfg.OutputSampleRateHz
	}
	if _, err := scheduler.Enqueue(buf); err != nil {
		s.debug("playback", "schedule failed: "+err.Error())
	}
}

func (s *Session) flushPlayback() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler != nil {
		scheduler.StopAll()
	}
}

// handleConnectionError moves the session to the error state and tears
// everything down. No automatic retry; restart is a user action.
func (s *Session) handleConnectionError(stream backend.Stream, e backend.ErrorEvent) {
	s.mu.Lock()
	if s.stream != stream {
		s.mu.Unlock()
		return
	}
	pipeline := s.pipeline
	scheduler := s.scheduler
	output := s.output
	s.stream = nil
	s.pipeline = nil
	s.scheduler = nil
	s.output = nil
	s.userBuf.Reset()
	s.asstBuf.Reset()
	s.state = StateError
	s.mu.Unlock()

	s.teardown(stream, pipeline, scheduler, output)
	s.emit(SessionErrorEvent{Err: &core.Error{
		Type:    core.ErrConnection,
		Message: e.Message,
		Code:    e.Code,
	}})
	s.emit(StateChangedEvent{State: StateError})
}

// handleClosed is the remote-close path: same teardown as Stop.
func (s *Session) handleClosed(stream backend.Stream) {
	s.mu.Lock()
	if s.stream != stream {
		s.mu.Unlock()
		return
	}
	pipeline := s.pipeline
	scheduler := s.scheduler
	output := s.output
	s.stream = nil
	s.pipeline = nil
	s.scheduler = nil
	s.output = nil
	s.userBuf.Reset()
	s.asstBuf.Reset()
	s.state = StateDisconnected
	s.mu.Unlock()

	s.teardown(stream, pipeline, scheduler, output)
	s.emit(StateChangedEvent{State: StateDisconnected})
}

func (s *Session) isCurrent(stream backend.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream == stream
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Do not stall the event loop when the consumer lags.
	}
}

func (s *Session) debug(category, message string) {
	s.emit(DebugEvent{Category: category, Message: message})
}
