// Package gemini implements the live backend connector over the
// provider's bidirectional WebSocket endpoint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clipstream-go/clipstream/pkg/core"
	"github.com/clipstream-go/clipstream/pkg/core/backend"
)

const (
	defaultEndpoint       = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultConnectTimeout = 15 * time.Second
	defaultReadLimit      = 16 << 20 // inline audio frames are large
)

// Connector dials the provider's live endpoint.
type Connector struct {
	// APIKey authenticates the connection. Required.
	APIKey string

	// Endpoint overrides the provider endpoint, used by tests.
	Endpoint string

	// ConnectTimeout bounds dial plus setup handshake. Zero means the
	// package default.
	ConnectTimeout time.Duration

	// Dialer overrides the websocket dialer, used by tests.
	Dialer *websocket.Dialer
}

var _ backend.Connector = (*Connector)(nil)

// Connect dials the endpoint, sends the setup frame, and waits for the
// setup acknowledgment before returning a live stream.
func (c *Connector) Connect(ctx context.Context, cfg backend.ConnectConfig) (backend.Stream, error) {
	if c == nil {
		return nil, core.NewInvalidRequestError("connector must not be nil")
	}
	if c.APIKey == "" {
		return nil, core.NewInvalidRequestErrorWithParam("api key is required", "api_key")
	}
	if cfg.Model == "" {
		return nil, core.NewInvalidRequestErrorWithParam("model is required", "model")
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, core.NewInvalidRequestError("invalid backend endpoint")
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, core.NewConnectionError(fmt.Sprintf("backend dial failed (status %d)", resp.StatusCode), err)
		}
		return nil, core.NewConnectionError("backend dial failed", err)
	}
	conn.SetReadLimit(defaultReadLimit)

	if err := conn.WriteJSON(buildSetup(cfg)); err != nil {
		_ = conn.Close()
		return nil, core.NewConnectionError("send setup", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, core.NewConnectionError("read setup ack", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	ok, err := isSetupComplete(payload)
	if err != nil {
		_ = conn.Close()
		return nil, core.NewConnectionError("decode setup ack", err)
	}
	if !ok {
		_ = conn.Close()
		return nil, core.NewConnectionError("backend rejected setup", nil)
	}

	outputRate := cfg.OutputSampleRateHz
	if outputRate <= 0 {
		outputRate = 24000
	}

	s := &stream{
		conn:       conn,
		outputRate: outputRate,
		events:     make(chan backend.ServerEvent, 256),
		done:       make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type stream struct {
	conn       *websocket.Conn
	outputRate int

	events chan backend.ServerEvent
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

func (s *stream) SendMedia(chunk backend.MediaChunk) error {
	if s.closed.Load() {
		return core.NewConnectionError("stream is closed", nil)
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{MimeType: chunk.MimeType, Data: chunk.Data}},
		},
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return core.NewConnectionError("send media chunk", err)
	}
	return nil
}

func (s *stream) Events() <-chan backend.ServerEvent {
	return s.events
}

func (s *stream) Err() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *stream) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *stream) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if closeErr := (&websocket.CloseError{}); errors.As(err, &closeErr) {
				s.emit(backend.ClosedEvent{Code: closeErr.Code, Reason: closeErr.Text})
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.setErr(core.NewConnectionError("backend closed connection", err))
				}
				return
			}
			if s.closed.Load() {
				s.emit(backend.ClosedEvent{Code: websocket.CloseNormalClosure})
				return
			}
			s.setErr(core.NewConnectionError("read server frame", err))
			s.emit(backend.ErrorEvent{Message: err.Error()})
			return
		}

		events, decodeErr := decodeServerFrame(data, s.outputRate)
		if decodeErr != nil {
			// Per-message codec failures drop the frame and keep the
			// connection alive.
			s.emit(backend.ErrorEvent{Code: "codec_error", Message: decodeErr.Error()})
			continue
		}
		for _, ev := range events {
			s.emit(ev)
		}
	}
}

// emit delivers an event in order, giving up only when the consumer has
// abandoned the stream.
func (s *stream) emit(ev backend.ServerEvent) {
	select {
	case s.events <- ev:
	case <-time.After(5 * time.Second):
	}
}
