package live

// OutputDevice is the playback side boundary: a monotonic clock plus
// scheduled playback of decoded PCM buffers. Implementations own the
// actual audio hardware; tests substitute fakes.
type OutputDevice interface {
	// CurrentTime returns the device clock position in seconds. The
	// clock is monotonic and independent of wall-clock time.
	CurrentTime() float64

	// Schedule queues buf to begin playing at startTime on the device
	// clock and returns a handle for the playing source.
	Schedule(buf AudioBuffer, startTime float64) (PlaybackSource, error)

	// Close releases the device. Idempotent.
	Close() error
}

// PlaybackSource is one scheduled buffer on the output clock. It lives
// from schedule time until natural completion or Stop.
type PlaybackSource interface {
	// Stop halts playback immediately, regardless of position.
	Stop()

	// Done is closed when the source finishes or is stopped.
	Done() <-chan struct{}
}

// CaptureDevice is the input side boundary: blocks of mono float samples
// on the hardware pull cadence, plus on-demand still frames when a video
// source is present. Teardown methods are individually idempotent so the
// ordered shutdown sequence tolerates partial prior teardown.
type CaptureDevice interface {
	// StartAudio registers a fixed-size block processor. handler is
	// invoked with blockSize mono samples each time a block becomes
	// available; the cadence follows the audio hardware, not a timer.
	StartAudio(blockSize int, handler func(samples []float32)) error

	// StopAudio disconnects the block processor. Safe when never
	// started or already stopped.
	StopAudio()

	// CaptureFrame returns the current video frame as an encoded still
	// image. ok is false when no frame is ready; the caller skips the
	// tick rather than queueing.
	CaptureFrame() (data []byte, mimeType string, ok bool)

	// StopTracks stops every underlying device track (mic, camera).
	// Safe to call repeatedly.
	StopTracks()

	// Close releases the device contexts. Safe to call repeatedly.
	Close() error
}
