// Package backend defines the bidirectional streaming interface the live
// session core consumes. Concrete transports live in subpackages.
package backend

import (
	"context"
)

// MediaChunk is one outbound realtime payload: transport-encoded bytes
// plus the mime type that tells the backend how to interpret them.
type MediaChunk struct {
	// Data is the transport-text (base64) encoding of the payload.
	Data string
	// MimeType declares the payload format, e.g. "audio/pcm;rate=16000"
	// or "image/jpeg".
	MimeType string
}

// ConnectConfig carries the session parameters fixed at connect time.
type ConnectConfig struct {
	Model string
	Voice string

	// SystemInstruction optionally steers the assistant.
	SystemInstruction string

	InputSampleRateHz  int
	OutputSampleRateHz int
}

// Stream is one live bidirectional connection. Events are delivered in
// arrival order; the channel closes when the connection ends.
type Stream interface {
	// SendMedia transmits one realtime media chunk. Sends are
	// fire-and-forget; an error means the connection is unusable.
	SendMedia(chunk MediaChunk) error

	// Events yields inbound server events in arrival order.
	Events() <-chan ServerEvent

	// Err returns the terminal connection error, if any, once the
	// event channel has closed.
	Err() error

	// Close shuts the connection down. Safe to call more than once.
	Close() error
}

// Connector opens live streams. Implementations own the wire protocol.
type Connector interface {
	Connect(ctx context.Context, cfg ConnectConfig) (Stream, error)
}

// ServerEvent is a tagged inbound event from the backend.
type ServerEvent interface {
	EventType() string
}

// InputTranscriptEvent carries a partial transcript of user speech.
type InputTranscriptEvent struct {
	Text string
}

func (e InputTranscriptEvent) EventType() string { return "input_transcript" }

// OutputTranscriptEvent carries a partial transcript of assistant speech.
type OutputTranscriptEvent struct {
	Text string
}

func (e OutputTranscriptEvent) EventType() string { return "output_transcript" }

// TurnCompleteEvent marks the end of one user/assistant exchange.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) EventType() string { return "turn_complete" }

// AudioEvent carries decoded assistant audio ready for playback.
type AudioEvent struct {
	// PCM is raw 16-bit little-endian mono audio.
	PCM []byte
	// SampleRateHz is the declared playback rate of PCM.
	SampleRateHz int
}

func (e AudioEvent) EventType() string { return "audio" }

// InterruptedEvent signals the backend cut the assistant turn short
// (typically barge-in); queued playback should be discarded.
type InterruptedEvent struct{}

func (e InterruptedEvent) EventType() string { return "interrupted" }

// GoAwayEvent warns that the backend will close the connection soon.
type GoAwayEvent struct {
	TimeLeft string
}

func (e GoAwayEvent) EventType() string { return "go_away" }

// ErrorEvent carries a connection-level error reported by the backend.
type ErrorEvent struct {
	Code    string
	Message string
}

func (e ErrorEvent) EventType() string { return "error" }

// ClosedEvent is the final event before the channel closes.
type ClosedEvent struct {
	Code   int
	Reason string
}

func (e ClosedEvent) EventType() string { return "closed" }
