package gemini

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/clipstream-go/clipstream/pkg/core"
	"github.com/clipstream-go/clipstream/pkg/core/backend"
	"github.com/clipstream-go/clipstream/pkg/core/pcm"
)

// Wire types for the BidiGenerateContent WebSocket protocol. The shapes
// are fixed by the provider; field names follow its JSON casing.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string            `json:"model"`
	GenerationConfig         generationConfig  `json:"generationConfig"`
	SystemInstruction        *systemContent    `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *transcriptionCfg `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *transcriptionCfg `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string   `json:"responseModalities"`
	SpeechConfig       *speechCfg `json:"speechConfig,omitempty"`
}

type speechCfg struct {
	VoiceConfig voiceCfg `json:"voiceConfig"`
}

type voiceCfg struct {
	PrebuiltVoiceConfig prebuiltVoiceCfg `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceCfg struct {
	VoiceName string `json:"voiceName"`
}

type systemContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type transcriptionCfg struct{}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *modelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type modelTurn struct {
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft"`
}

func buildSetup(cfg backend.ConnectConfig) setupMessage {
	model := strings.TrimSpace(cfg.Model)
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	payload := setupPayload{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &transcriptionCfg{},
		OutputAudioTranscription: &transcriptionCfg{},
	}
	if voice := strings.TrimSpace(cfg.Voice); voice != "" {
		payload.GenerationConfig.SpeechConfig = &speechCfg{
			VoiceConfig: voiceCfg{
				PrebuiltVoiceConfig: prebuiltVoiceCfg{VoiceName: voice},
			},
		}
	}
	if sys := strings.TrimSpace(cfg.SystemInstruction); sys != "" {
		payload.SystemInstruction = &systemContent{
			Parts: []textPart{{Text: sys}},
		}
	}
	return setupMessage{Setup: payload}
}

// decodeServerFrame expands one inbound JSON frame into zero or more
// events, preserving the order the provider encodes them in: transcripts
// first, then audio parts, then interruption, then turn completion.
func decodeServerFrame(data []byte, defaultOutputRateHz int) ([]backend.ServerEvent, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, core.NewCodecError("malformed server frame", err)
	}

	var events []backend.ServerEvent

	if msg.GoAway != nil {
		events = append(events, backend.GoAwayEvent{TimeLeft: msg.GoAway.TimeLeft})
	}

	sc := msg.ServerContent
	if sc == nil {
		return events, nil
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, backend.InputTranscriptEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, backend.OutputTranscriptEvent{Text: sc.OutputTranscription.Text})
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MimeType, "audio/pcm") {
				continue
			}
			pcmBytes, err := decodeInlineAudio(part.InlineData.Data)
			if err != nil {
				return nil, err
			}
			events = append(events, backend.AudioEvent{
				PCM:          pcmBytes,
				SampleRateHz: sampleRateFromMime(part.InlineData.MimeType, defaultOutputRateHz),
			})
		}
	}

	if sc.Interrupted {
		events = append(events, backend.InterruptedEvent{})
	}
	if sc.TurnComplete {
		events = append(events, backend.TurnCompleteEvent{})
	}
	return events, nil
}

func decodeInlineAudio(b64 string) ([]byte, error) {
	data, err := pcm.DecodeTransport(b64)
	if err != nil {
		return nil, core.NewCodecError("malformed inline audio payload", err)
	}
	return data, nil
}

// sampleRateFromMime extracts the rate parameter from a mime type like
// "audio/pcm;rate=24000", falling back to the session default.
func sampleRateFromMime(mimeType string, def int) int {
	for _, part := range strings.Split(mimeType, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "rate=") {
			continue
		}
		rate, err := strconv.Atoi(strings.TrimPrefix(part, "rate="))
		if err != nil || rate <= 0 {
			return def
		}
		return rate
	}
	return def
}

func isSetupComplete(data []byte) (bool, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return false, fmt.Errorf("decode setup ack: %w", err)
	}
	return msg.SetupComplete != nil, nil
}
