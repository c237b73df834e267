// Package protocol defines the JSON frames exchanged on the gateway's
// live websocket. Clients open with a hello, then stream audio_frame
// (and optionally video_frame) messages; the server answers with
// hello_ack and a stream of state, transcript, and audio frames.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ProtocolVersion1 = "1"

// Control operations accepted on an established session.
const (
	ControlStop = "stop"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// AudioFormat describes the PCM shape on one leg of the session.
type AudioFormat struct {
	Encoding     string `json:"encoding"`
	SampleRateHz int    `json:"sample_rate_hz"`
	Channels     int    `json:"channels"`
}

type HelloClient struct {
	Name     string `json:"name,omitempty"`
	Version  string `json:"version,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type ClientHello struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Client          HelloClient `json:"client,omitempty"`
	Model           string      `json:"model,omitempty"`
	Voice           string      `json:"voice,omitempty"`
	EnableVideo     bool        `json:"enable_video,omitempty"`
	AudioIn         AudioFormat `json:"audio_in"`
}

// RedactedForLog drops free-form client fields before logging.
func (h ClientHello) RedactedForLog() map[string]any {
	return map[string]any{
		"type":             h.Type,
		"protocol_version": h.ProtocolVersion,
		"model":            h.Model,
		"voice":            h.Voice,
		"enable_video":     h.EnableVideo,
		"audio_in":         h.AudioIn,
	}
}

type ClientAudioFrame struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq,omitempty"`
	DataB64 string `json:"data_b64"`
}

type ClientVideoFrame struct {
	Type     string `json:"type"`
	MimeType string `json:"mime_type"`
	DataB64  string `json:"data_b64"`
}

type ClientControl struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

// DecodeClientMessage parses and validates one inbound frame, returning
// the typed message or a DecodeError the caller can forward verbatim.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "hello":
		var msg ClientHello
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid hello frame", "")
		}
		if err := ValidateHello(msg); err != nil {
			return nil, err
		}
		return msg, nil
	case "audio_frame":
		var msg ClientAudioFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio_frame", "")
		}
		if strings.TrimSpace(msg.DataB64) == "" {
			return nil, badRequest("audio_frame.data_b64 is required", "data_b64")
		}
		return msg, nil
	case "video_frame":
		var msg ClientVideoFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid video_frame", "")
		}
		if strings.TrimSpace(msg.DataB64) == "" {
			return nil, badRequest("video_frame.data_b64 is required", "data_b64")
		}
		if strings.TrimSpace(msg.MimeType) == "" {
			return nil, badRequest("video_frame.mime_type is required", "mime_type")
		}
		return msg, nil
	case "control":
		var msg ClientControl
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid control", "")
		}
		op := strings.TrimSpace(msg.Op)
		if op == "" {
			return nil, badRequest("control.op is required", "op")
		}
		switch op {
		case ControlStop:
		default:
			return nil, unsupported("unsupported control operation", "op")
		}
		msg.Op = op
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

func ValidateHello(msg ClientHello) error {
	if strings.TrimSpace(msg.ProtocolVersion) == "" {
		return badRequest("hello.protocol_version is required", "protocol_version")
	}
	if msg.ProtocolVersion != ProtocolVersion1 {
		return unsupported("unsupported protocol version", "protocol_version")
	}
	if strings.TrimSpace(msg.AudioIn.Encoding) == "" {
		return badRequest("hello.audio_in.encoding is required", "audio_in.encoding")
	}
	if msg.AudioIn.Encoding != "pcm_s16le" {
		return unsupported("unsupported audio encoding", "audio_in.encoding")
	}
	if msg.AudioIn.SampleRateHz <= 0 {
		return badRequest("hello.audio_in.sample_rate_hz must be > 0", "audio_in.sample_rate_hz")
	}
	if msg.AudioIn.Channels != 1 {
		return unsupported("only mono input is supported", "audio_in.channels")
	}
	return nil
}

type HelloAckLimits struct {
	MaxJSONMessageBytes int `json:"max_json_message_bytes"`
	MaxSessionSeconds   int `json:"max_session_seconds,omitempty"`
}

type ServerHelloAck struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	AudioIn         AudioFormat     `json:"audio_in"`
	AudioOut        AudioFormat     `json:"audio_out"`
	Limits          *HelloAckLimits `json:"limits,omitempty"`
}

type ServerState struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type ServerTranscriptDelta struct {
	Type   string `json:"type"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

type TurnEntry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type ServerTurnCommitted struct {
	Type  string      `json:"type"`
	Turns []TurnEntry `json:"turns"`
}

type ServerAudioChunk struct {
	Type         string `json:"type"`
	Seq          int64  `json:"seq"`
	SampleRateHz int    `json:"sample_rate_hz"`
	DataB64      string `json:"data_b64"`
}

type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Close   bool   `json:"close,omitempty"`
}
