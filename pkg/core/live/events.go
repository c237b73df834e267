package live

import (
	"github.com/clipstream-go/clipstream/pkg/core"
)

// State is the session lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Author identifies the speaker of a transcript turn.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Turn is one committed entry in the conversation transcript.
type Turn struct {
	Author Author `json:"author"`
	Text   string `json:"text"`
}

// Event is a session event delivered to the UI layer.
type Event interface {
	EventType() string
}

// StateChangedEvent reports a lifecycle transition.
type StateChangedEvent struct {
	State State
}

func (e StateChangedEvent) EventType() string { return "state_changed" }

// TranscriptDeltaEvent carries partial transcript text as it streams in,
// before the turn commits.
type TranscriptDeltaEvent struct {
	Author Author
	Text   string
}

func (e TranscriptDeltaEvent) EventType() string { return "transcript_delta" }

// TurnCommittedEvent reports turns appended to the transcript log by a
// turn-complete marker, in log order.
type TurnCommittedEvent struct {
	Turns []Turn
}

func (e TurnCommittedEvent) EventType() string { return "turn_committed" }

// SessionErrorEvent surfaces a terminal session error.
type SessionErrorEvent struct {
	Err *core.Error
}

func (e SessionErrorEvent) EventType() string { return "session_error" }

// DebugEvent carries diagnostics that are not part of the session state,
// such as dropped malformed frames.
type DebugEvent struct {
	Category string
	Message  string
}

func (e DebugEvent) EventType() string { return "debug" }
