package pcm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/clipstream-go/clipstream/pkg/core"
)

func TestFloatToPCM16(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    []byte
	}{
		{
			name:    "silence",
			samples: []float32{0, 0},
			want:    []byte{0, 0, 0, 0},
		},
		{
			name:    "half amplitude",
			samples: []float32{0.5},
			want:    []byte{0x00, 0x40}, // 16384 LE
		},
		{
			name:    "negative half",
			samples: []float32{-0.5},
			want:    []byte{0x00, 0xC0}, // -16384 LE
		},
		{
			name:    "negative full scale",
			samples: []float32{-1.0},
			want:    []byte{0x00, 0x80}, // -32768 LE
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FloatToPCM16(tt.samples)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("FloatToPCM16(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}
}

func TestFloatToPCM16NoClamp(t *testing.T) {
	// +1.0 scales to 32768 which does not fit int16; the conversion
	// wraps instead of clamping.
	got := FloatToPCM16([]float32{1.0})
	want := []byte{0x00, 0x80} // wrapped to -32768
	if !bytes.Equal(got, want) {
		t.Errorf("FloatToPCM16([1.0]) = %v, want wraparound %v", got, want)
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) * 0.1))
		if samples[i] >= 1.0 {
			samples[i] = 1.0 - 1.0/32768.0
		}
	}

	encoded := FloatToPCM16(samples)
	decoded, err := PCM16ToFloat(encoded, 1)
	if err != nil {
		t.Fatalf("PCM16ToFloat: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("channel count = %d, want 1", len(decoded))
	}
	if len(decoded[0]) != len(samples) {
		t.Fatalf("sample count = %d, want %d", len(decoded[0]), len(samples))
	}
	const tol = 1.0 / 32768.0
	for i := range samples {
		diff := math.Abs(float64(decoded[0][i] - samples[i]))
		if diff > tol {
			t.Fatalf("sample %d: round-trip diff %g exceeds %g", i, diff, tol)
		}
	}
}

func TestPCM16ToFloatDeinterleave(t *testing.T) {
	// Two frames of stereo: L0=256, R0=-256, L1=512, R1=-512.
	data := []byte{
		0x00, 0x01, 0x00, 0xFF,
		0x00, 0x02, 0x00, 0xFE,
	}
	chans, err := PCM16ToFloat(data, 2)
	if err != nil {
		t.Fatalf("PCM16ToFloat: %v", err)
	}
	left := chans[0]
	right := chans[1]
	wantLeft := []float32{256.0 / 32768.0, 512.0 / 32768.0}
	wantRight := []float32{-256.0 / 32768.0, -512.0 / 32768.0}
	for i := range wantLeft {
		if left[i] != wantLeft[i] {
			t.Errorf("left[%d] = %v, want %v", i, left[i], wantLeft[i])
		}
		if right[i] != wantRight[i] {
			t.Errorf("right[%d] = %v, want %v", i, right[i], wantRight[i])
		}
	}
}

func TestPCM16ToFloatErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		channels int
	}{
		{"odd byte length", []byte{1, 2, 3}, 1},
		{"zero channels", []byte{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PCM16ToFloat(tt.data, tt.channels)
			var coreErr *core.Error
			if !errors.As(err, &coreErr) || coreErr.Type != core.ErrCodec {
				t.Fatalf("err = %v, want codec_error", err)
			}
		})
	}
}

func TestTransportRoundTrip(t *testing.T) {
	tests := [][]byte{
		nil,
		{0},
		{0xFF, 0x00, 0x7F, 0x80},
		bytes.Repeat([]byte{0xAB, 0xCD}, 333),
	}
	for _, data := range tests {
		text := EncodeTransport(data)
		got, err := DecodeTransport(text)
		if err != nil {
			t.Fatalf("DecodeTransport(%q): %v", text, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip of %v = %v", data, got)
		}
	}
}

func TestDecodeTransportMalformed(t *testing.T) {
	_, err := DecodeTransport("not-valid-base64!!!")
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrCodec {
		t.Fatalf("err = %v, want codec_error", err)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		nbytes int
		rate   int
		want   float64
	}{
		{48000, 24000, 1.0},
		{24000, 24000, 0.5},
		{9600, 24000, 0.2},
		{8192, 16000, 0.256},
		{100, 0, 0},
	}
	for _, tt := range tests {
		data := make([]byte, tt.nbytes)
		if got := Duration(data, tt.rate); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Duration(%d bytes, %d Hz) = %v, want %v", tt.nbytes, tt.rate, got, tt.want)
		}
	}
}

func TestRMSEnergy(t *testing.T) {
	if got := RMSEnergy(nil); got != 0 {
		t.Errorf("RMSEnergy(nil) = %v, want 0", got)
	}

	silence := make([]byte, 512)
	if got := RMSEnergy(silence); got != 0 {
		t.Errorf("RMSEnergy(silence) = %v, want 0", got)
	}

	// Full-scale square wave has RMS 1.
	square := FloatToPCM16([]float32{-1, -1, -1, -1})
	if got := RMSEnergy(square); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("RMSEnergy(square) = %v, want 1", got)
	}
}
