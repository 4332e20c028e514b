package audio

import "time"

// Voice frames arrive as raw signed 16-bit little-endian PCM at the fixed
// rate and layout used by the voice transport. Every encoder capability
// consumes this format.
const (
	SampleRate = 48000 // Hz
	Channels   = 2     // interleaved stereo
	SampleBits = 16

	// BlockAlign is the byte width of one sample across all channels.
	BlockAlign = Channels * SampleBits / 8

	// ByteRate is the PCM byte throughput of one second of audio.
	ByteRate = SampleRate * BlockAlign

	// FrameDuration is the nominal spacing between delivered voice frames.
	FrameDuration = 20 * time.Millisecond

	// FrameSamples is the per-channel sample count of one nominal frame.
	FrameSamples = SampleRate / 50

	// FrameBytes is the byte size of one nominal frame.
	FrameBytes = FrameSamples * BlockAlign
)

// PCMDuration returns the playback duration of n bytes of raw PCM.
func PCMDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / ByteRate
}

// PCMBytes returns the block-aligned byte count covering duration d.
func PCMBytes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(int64(d) * ByteRate / int64(time.Second))
	return n - n%BlockAlign
}
