package protocol

import (
	"testing"
)

func TestDecodeClientMessage_Hello(t *testing.T) {
	raw := []byte(`{
		"type":"hello",
		"protocol_version":"1",
		"model":"gemini-2.0-flash-live-001",
		"voice":"Puck",
		"enable_video":true,
		"audio_in":{"encoding":"pcm_s16le","sample_rate_hz":16000,"channels":1}
	}`)

	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	hello, ok := msg.(ClientHello)
	if !ok {
		t.Fatalf("decoded type = %T, want ClientHello", msg)
	}
	if hello.ProtocolVersion != "1" {
		t.Fatalf("protocol_version=%q", hello.ProtocolVersion)
	}
	if !hello.EnableVideo {
		t.Fatal("enable_video not decoded")
	}
}

func TestDecodeClientMessage_HelloMissingRequired(t *testing.T) {
	raw := []byte(`{"type":"hello","protocol_version":"1"}`)
	_, err := DecodeClientMessage(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "bad_request" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_HelloUnsupportedVersion(t *testing.T) {
	raw := []byte(`{
		"type":"hello",
		"protocol_version":"2",
		"audio_in":{"encoding":"pcm_s16le","sample_rate_hz":16000,"channels":1}
	}`)
	_, err := DecodeClientMessage(raw)
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if decErr.Code != "unsupported" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_AudioFrame(t *testing.T) {
	raw := []byte(`{"type":"audio_frame","seq":7,"data_b64":"AAA="}`)
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	frame, ok := msg.(ClientAudioFrame)
	if !ok {
		t.Fatalf("decoded type = %T, want ClientAudioFrame", msg)
	}
	if frame.Seq != 7 || frame.DataB64 != "AAA=" {
		t.Fatalf("frame=%+v", frame)
	}
}

func TestDecodeClientMessage_AudioFrameMissingData(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"audio_frame"}`))
	decErr, ok := err.(*DecodeError)
	if !ok || decErr.Param != "data_b64" {
		t.Fatalf("err = %v, want bad_request on data_b64", err)
	}
}

func TestDecodeClientMessage_VideoFrameRequiresMime(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"video_frame","data_b64":"AAA="}`))
	decErr, ok := err.(*DecodeError)
	if !ok || decErr.Param != "mime_type" {
		t.Fatalf("err = %v, want bad_request on mime_type", err)
	}
}

func TestDecodeClientMessage_UnsupportedControlOp(t *testing.T) {
	raw := []byte(`{"type":"control","op":"reboot"}`)
	_, err := DecodeClientMessage(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "unsupported" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_ControlStop(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"control","op":" stop "}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	ctl := msg.(ClientControl)
	if ctl.Op != ControlStop {
		t.Fatalf("op=%q, want stop", ctl.Op)
	}
}

func TestDecodeClientMessage_InvalidJSON(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{nope`))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateHello_RejectsStereo(t *testing.T) {
	err := ValidateHello(ClientHello{
		Type:            "hello",
		ProtocolVersion: "1",
		AudioIn:         AudioFormat{Encoding: "pcm_s16le", SampleRateHz: 16000, Channels: 2},
	})
	decErr, ok := err.(*DecodeError)
	if !ok || decErr.Code != "unsupported" {
		t.Fatalf("err = %v, want unsupported", err)
	}
}

func TestClientHelloRedaction(t *testing.T) {
	h := ClientHello{
		Type:            "hello",
		ProtocolVersion: "1",
		Model:           "gemini-2.0-flash-live-001",
		Client:          HelloClient{Name: "cli", Version: "0.3.0", Platform: "linux/amd64"},
		AudioIn:         AudioFormat{Encoding: "pcm_s16le", SampleRateHz: 16000, Channels: 1},
	}
	got := h.RedactedForLog()
	if got["model"] != "gemini-2.0-flash-live-001" {
		t.Errorf("model = %v", got["model"])
	}
	if _, present := got["client"]; present {
		t.Error("client block should not be logged")
	}
}
