// Package pcm converts between float audio samples, 16-bit little-endian
// PCM bytes, and the text-safe transport encoding used on JSON channels.
package pcm

import (
	"encoding/base64"
	"math"

	"github.com/clipstream-go/clipstream/pkg/core"
)

const (
	// BytesPerSample is the width of one 16-bit PCM sample.
	BytesPerSample = 2

	scale = 32768.0
)

// FloatToPCM16 scales each sample by 32768 and truncates to a signed
// 16-bit integer, little-endian. No clamping is performed: out-of-range
// input wraps, matching the Int16Array store semantics of the capture
// path this codec feeds.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, f := range samples {
		s := int16(int32(f * scale))
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// PCM16ToFloat de-interleaves 16-bit little-endian samples across
// channels and normalizes each to [-1, 1). channels must be >= 1; a
// trailing odd byte is rejected rather than silently dropped.
func PCM16ToFloat(data []byte, channels int) ([][]float32, error) {
	if channels < 1 {
		return nil, core.NewCodecError("channel count must be >= 1", nil)
	}
	if len(data)%BytesPerSample != 0 {
		return nil, core.NewCodecError("pcm byte length must be even", nil)
	}
	frames := len(data) / BytesPerSample / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			i := (frame*channels + ch) * BytesPerSample
			s := int16(data[i]) | int16(data[i+1])<<8
			out[ch][frame] = float32(s) / scale
		}
	}
	return out, nil
}

// EncodeTransport maps arbitrary bytes onto the text-safe transport
// encoding (standard base64). Lossless for any byte sequence.
func EncodeTransport(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeTransport is the inverse of EncodeTransport. Malformed input
// yields a codec error; bytes are never silently dropped.
func DecodeTransport(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, core.NewCodecError("malformed transport text", err)
	}
	return data, nil
}

// Duration returns the playback duration in seconds of PCM16 bytes at
// the given sample rate for mono audio.
func Duration(data []byte, sampleRateHz int) float64 {
	if sampleRateHz <= 0 {
		return 0
	}
	return float64(len(data)/BytesPerSample) / float64(sampleRateHz)
}

// RMSEnergy computes the root-mean-square energy of mono PCM16 bytes,
// normalized to [0, 1]. Used for input level display.
func RMSEnergy(data []byte) float64 {
	if len(data) < BytesPerSample {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(data); i += BytesPerSample {
		s := int16(data[i]) | int16(data[i+1])<<8
		v := float64(s) / scale
		sum += v * v
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
