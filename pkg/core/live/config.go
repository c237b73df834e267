package live

import (
	"time"

	"github.com/clipstream-go/clipstream/pkg/core"
)

const (
	// DefaultInputSampleRateHz is the fixed microphone capture rate.
	DefaultInputSampleRateHz = 16000
	// DefaultOutputSampleRateHz is the fixed playback rate for assistant
	// audio. Asymmetric with input: capture and playback use different
	// fidelity budgets.
	DefaultOutputSampleRateHz = 24000
	// DefaultAudioBlockSize is the capture block size in samples.
	DefaultAudioBlockSize = 4096
	// DefaultVideoFrameInterval is the wall-clock cadence of video frame
	// snapshots (2 Hz).
	DefaultVideoFrameInterval = 500 * time.Millisecond

	// DefaultModel and DefaultVoice select the backend configuration
	// when the caller leaves them empty.
	DefaultModel = "gemini-2.0-flash-live-001"
	DefaultVoice = "Puck"

	audioInputMimeType = "audio/pcm;rate=16000"
)

// Config parameterizes one live session. A single Session type serves
// every app surface; video capture and voice selection are configuration,
// not separate implementations.
type Config struct {
	Model string
	Voice string

	// SystemInstruction optionally steers the assistant.
	SystemInstruction string

	// EnableVideo turns the 2 Hz frame snapshot path on.
	EnableVideo bool

	InputSampleRateHz  int
	OutputSampleRateHz int
	AudioBlockSize     int
	VideoFrameInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.InputSampleRateHz <= 0 {
		c.InputSampleRateHz = DefaultInputSampleRateHz
	}
	if c.OutputSampleRateHz <= 0 {
		c.OutputSampleRateHz = DefaultOutputSampleRateHz
	}
	if c.AudioBlockSize <= 0 {
		c.AudioBlockSize = DefaultAudioBlockSize
	}
	if c.VideoFrameInterval <= 0 {
		c.VideoFrameInterval = DefaultVideoFrameInterval
	}
	return c
}

// Validate rejects configurations no device or backend could serve.
func (c Config) Validate() error {
	if c.InputSampleRateHz < 0 {
		return core.NewInvalidRequestErrorWithParam("input sample rate must be positive", "input_sample_rate_hz")
	}
	if c.OutputSampleRateHz < 0 {
		return core.NewInvalidRequestErrorWithParam("output sample rate must be positive", "output_sample_rate_hz")
	}
	if c.AudioBlockSize < 0 {
		return core.NewInvalidRequestErrorWithParam("audio block size must be positive", "audio_block_size")
	}
	if c.VideoFrameInterval < 0 {
		return core.NewInvalidRequestErrorWithParam("video frame interval must be positive", "video_frame_interval")
	}
	return nil
}
