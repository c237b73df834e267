package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clipstream-go/clipstream/pkg/core"
	"github.com/clipstream-go/clipstream/pkg/core/backend"
	"github.com/clipstream-go/clipstream/pkg/core/live"
	"github.com/clipstream-go/clipstream/pkg/core/pcm"
	"github.com/clipstream-go/clipstream/pkg/gateway/config"
	"github.com/clipstream-go/clipstream/pkg/gateway/live/protocol"
	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
	"github.com/clipstream-go/clipstream/pkg/gateway/mw"
)

// LiveHandler runs /v1/live websocket sessions. Each connection opens
// one backend live session; client media frames feed the capture side
// and session events stream back as JSON frames.
type LiveHandler struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Connector backend.Connector

	// Slots caps concurrent sessions. nil disables the cap.
	Slots chan struct{}
}

// NewLiveSlots builds the concurrency cap channel for LiveHandler.
func NewLiveSlots(n int) chan struct{} {
	if n <= 0 {
		return nil
	}
	return make(chan struct{}, n)
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}
	if h.Connector == nil {
		reqID, _ := mw.RequestIDFrom(r.Context())
		mw.WriteJSONError(w, http.StatusNotImplemented, &core.Error{
			Type:      core.ErrUnsupported,
			Message:   "live sessions are not configured",
			RequestID: reqID,
		})
		return
	}
	if !h.originAllowed(r) {
		reqID, _ := mw.RequestIDFrom(r.Context())
		mw.WriteJSONError(w, http.StatusForbidden, &core.Error{
			Type:      core.ErrPermission,
			Message:   "origin is not allowed",
			Param:     "Origin",
			RequestID: reqID,
		})
		return
	}

	release, ok := h.acquireSlot()
	if !ok {
		reqID, _ := mw.RequestIDFrom(r.Context())
		mw.WriteJSONError(w, http.StatusServiceUnavailable, &core.Error{
			Type:      core.ErrAPI,
			Message:   "too many active live sessions",
			Code:      "session_limit",
			RequestID: reqID,
		})
		return
	}
	defer release()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.LiveMaxJSONMessageBytes > 0 {
		conn.SetReadLimit(h.Config.LiveMaxJSONMessageBytes)
	}
	writer := &wsWriter{conn: conn, timeout: h.Config.LiveWSWriteTimeout}

	hello, ok := h.readHello(conn, writer)
	if !ok {
		return
	}

	capture := newWSCaptureDevice()
	output := newWSOutputDevice(writer, h.Metrics)

	sessionCfg := live.Config{
		Model:             strings.TrimSpace(hello.Model),
		Voice:             strings.TrimSpace(hello.Voice),
		SystemInstruction: h.Config.LiveSystemText,
		EnableVideo:       hello.EnableVideo && h.Config.LiveAllowVideo,
		InputSampleRateHz: hello.AudioIn.SampleRateHz,
	}
	if sessionCfg.Model == "" {
		sessionCfg.Model = h.Config.LiveModel
	}
	if sessionCfg.Voice == "" {
		sessionCfg.Voice = h.Config.LiveVoice
	}

	sess, err := live.NewSession(sessionCfg, live.Deps{
		Connector:        h.Connector,
		NewCaptureDevice: func() (live.CaptureDevice, error) { return capture, nil },
		NewOutputDevice:  func(sampleRateHz int) (live.OutputDevice, error) { return output, nil },
	})
	if err != nil {
		writer.writeError("bad_request", err.Error(), true)
		return
	}

	sessionID := "live_" + randHex(8)
	ack := protocol.ServerHelloAck{
		Type:            "hello_ack",
		ProtocolVersion: protocol.ProtocolVersion1,
		SessionID:       sessionID,
		AudioIn:         hello.AudioIn,
		AudioOut: protocol.AudioFormat{
			Encoding:     "pcm_s16le",
			SampleRateHz: live.DefaultOutputSampleRateHz,
			Channels:     1,
		},
		Limits: &protocol.HelloAckLimits{
			MaxJSONMessageBytes: int(h.Config.LiveMaxJSONMessageBytes),
			MaxSessionSeconds:   int(h.Config.LiveMaxSessionDuration / time.Second),
		},
	}
	if err := writer.WriteJSON(ack); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	go h.forwardEvents(sess, writer, done)

	startAt := time.Now()
	if err := sess.Start(r.Context()); err != nil {
		// forwardEvents already relayed the session error frame.
		close(done)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordLiveSessionStart()
	}
	defer func() {
		sess.Stop()
		close(done)
		if h.Metrics != nil {
			h.Metrics.RecordLiveSessionEnd(string(sess.State()), time.Since(startAt))
		}
	}()

	var durationTimer *time.Timer
	if h.Config.LiveMaxSessionDuration > 0 {
		durationTimer = time.AfterFunc(h.Config.LiveMaxSessionDuration, func() {
			writer.writeError("session_timeout", "maximum session duration reached", true)
			_ = conn.Close()
		})
		defer durationTimer.Stop()
	}

	h.readLoop(conn, writer, sess, capture, sessionID)
}

func (h LiveHandler) readHello(conn *websocket.Conn, writer *wsWriter) (protocol.ClientHello, bool) {
	handshakeTimeout := h.Config.LiveHandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 5 * time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	messageType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		writer.writeError("bad_request", "failed to read hello", true)
		return protocol.ClientHello{}, false
	}
	if messageType != websocket.TextMessage {
		writer.writeError("bad_request", "first frame must be hello", true)
		return protocol.ClientHello{}, false
	}
	decoded, err := protocol.DecodeClientMessage(firstFrame)
	if err != nil {
		writer.writeError(decodeErrCode(err), err.Error(), true)
		return protocol.ClientHello{}, false
	}
	hello, ok := decoded.(protocol.ClientHello)
	if !ok {
		writer.writeError("bad_request", "first frame must be hello", true)
		return protocol.ClientHello{}, false
	}
	if hello.AudioIn.SampleRateHz != live.DefaultInputSampleRateHz {
		writer.writeError("unsupported", "audio_in must be 16000Hz", true)
		return protocol.ClientHello{}, false
	}
	if h.Logger != nil {
		h.Logger.Info("live hello", "hello", hello.RedactedForLog())
	}
	return hello, true
}

// readLoop consumes client frames until the connection drops or the
// client sends a stop control.
func (h LiveHandler) readLoop(conn *websocket.Conn, writer *wsWriter, sess *live.Session, capture *wsCaptureDevice, sessionID string) {
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			writer.writeError("bad_request", "binary frames are not supported", false)
			continue
		}
		decoded, err := protocol.DecodeClientMessage(frame)
		if err != nil {
			writer.writeError(decodeErrCode(err), err.Error(), false)
			continue
		}

		switch msg := decoded.(type) {
		case protocol.ClientAudioFrame:
			raw, err := pcm.DecodeTransport(msg.DataB64)
			if err != nil {
				writer.writeError("codec_error", "malformed audio frame", false)
				continue
			}
			if h.Metrics != nil {
				h.Metrics.RecordLiveAudio("in", len(raw))
			}
			if err := capture.PushAudio(raw); err != nil {
				writer.writeError("codec_error", err.Error(), false)
			}
		case protocol.ClientVideoFrame:
			raw, err := pcm.DecodeTransport(msg.DataB64)
			if err != nil {
				writer.writeError("codec_error", "malformed video frame", false)
				continue
			}
			if h.Metrics != nil {
				h.Metrics.LiveFramesTotal.Inc()
			}
			capture.PushFrame(raw, msg.MimeType)
		case protocol.ClientControl:
			if msg.Op == protocol.ControlStop {
				if h.Logger != nil {
					h.Logger.Info("live session stopped by client", "session_id", sessionID)
				}
				return
			}
		case protocol.ClientHello:
			writer.writeError("bad_request", "hello may only be sent once", false)
		}
	}
}

// forwardEvents relays session events as server frames until done
// closes, then drains anything still buffered so terminal error frames
// reach the client.
func (h LiveHandler) forwardEvents(sess *live.Session, writer *wsWriter, done <-chan struct{}) {
	for {
		select {
		case <-done:
			for {
				select {
				case ev := <-sess.Events():
					h.forwardEvent(ev, writer)
				default:
					return
				}
			}
		case ev := <-sess.Events():
			h.forwardEvent(ev, writer)
		}
	}
}

func (h LiveHandler) forwardEvent(ev live.Event, writer *wsWriter) {
	switch e := ev.(type) {
	case live.StateChangedEvent:
		_ = writer.WriteJSON(protocol.ServerState{Type: "state", State: string(e.State)})
	case live.TranscriptDeltaEvent:
		_ = writer.WriteJSON(protocol.ServerTranscriptDelta{
			Type:   "transcript_delta",
			Author: string(e.Author),
			Text:   e.Text,
		})
	case live.TurnCommittedEvent:
		turns := make([]protocol.TurnEntry, len(e.Turns))
		for i, turn := range e.Turns {
			turns[i] = protocol.TurnEntry{Author: string(turn.Author), Text: turn.Text}
		}
		_ = writer.WriteJSON(protocol.ServerTurnCommitted{Type: "turn_committed", Turns: turns})
	case live.SessionErrorEvent:
		code := e.Err.Code
		if code == "" {
			code = string(e.Err.Type)
		}
		if h.Metrics != nil {
			h.Metrics.RecordError(string(e.Err.Type))
		}
		writer.writeError(code, e.Err.Message, true)
	case live.DebugEvent:
		if h.Logger != nil {
			h.Logger.Debug("live session", "category", e.Category, "message", e.Message)
		}
	}
}

func (h LiveHandler) acquireSlot() (func(), bool) {
	if h.Slots == nil {
		return func() {}, true
	}
	select {
	case h.Slots <- struct{}{}:
		return func() { <-h.Slots }, true
	default:
		return nil, false
	}
}

func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func decodeErrCode(err error) string {
	if decErr, ok := err.(*protocol.DecodeError); ok {
		return decErr.Code
	}
	return "bad_request"
}

// wsWriter serializes frame writes; the event forwarder and the output
// device share one connection.
type wsWriter struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (w *wsWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	}
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) writeAudioChunk(seq int64, sampleRateHz int, dataB64 string) error {
	return w.WriteJSON(protocol.ServerAudioChunk{
		Type:         "audio_chunk",
		Seq:          seq,
		SampleRateHz: sampleRateHz,
		DataB64:      dataB64,
	})
}

func (w *wsWriter) writeError(code, message string, close bool) {
	_ = w.WriteJSON(protocol.ServerError{Type: "error", Code: code, Message: message, Close: close})
	if close {
		w.mu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
			time.Now().Add(2*time.Second))
		w.mu.Unlock()
	}
}
