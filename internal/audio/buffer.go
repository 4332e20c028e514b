package audio

import (
	"sync"
	"time"
)

// Buffer accumulates one participant's raw PCM audio during a recording.
// It is append-only: chunks are concatenated in delivery order, and gaps
// between bursts are padded with silence proportional to the timestamp
// delta. The owning session stops writing once recording has finished,
// after which Snapshot returns a stable payload.
type Buffer struct {
	userID uint64

	// Audio data storage
	data []byte

	// Silence gap handling
	maxGapFill time.Duration // cap on zero-fill per gap, 0 disables filling

	// Timing and metadata
	firstWrite   time.Time
	lastWrite    time.Time
	frames       uint64
	silenceBytes uint64

	mu sync.Mutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	UserID       uint64        `json:"user_id"`
	Bytes        int           `json:"bytes"`
	Frames       uint64        `json:"frames"`
	SilenceBytes uint64        `json:"silence_bytes"`
	Duration     time.Duration `json:"duration"`
	LastWrite    time.Time     `json:"last_write"`
}

// NewBuffer creates an empty buffer for a single participant. maxGapFill
// bounds the amount of silence inserted for any single gap between bursts.
func NewBuffer(userID uint64, maxGapFill time.Duration) *Buffer {
	return &Buffer{
		userID:     userID,
		data:       make([]byte, 0, ByteRate/2), // Pre-allocate for 500ms of audio
		maxGapFill: maxGapFill,
	}
}

// Append concatenates chunk onto the buffer and records at as the most
// recent write time. If the delta since the previous write exceeds the
// nominal frame spacing, the uncovered portion is zero-filled as silence,
// capped at the configured maximum gap fill. Append never fails.
func (b *Buffer) Append(chunk []byte, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.firstWrite.IsZero() {
		b.firstWrite = at
	} else if b.maxGapFill > 0 {
		if gap := at.Sub(b.lastWrite) - FrameDuration; gap > 0 {
			if gap > b.maxGapFill {
				gap = b.maxGapFill
			}
			fill := PCMBytes(gap)
			b.data = append(b.data, make([]byte, fill)...)
			b.silenceBytes += uint64(fill)
		}
	}

	b.data = append(b.data, chunk...)
	b.lastWrite = at
	b.frames++
}

// Snapshot returns a copy of the accumulated audio. An empty slice is
// returned when no frames were ever received for this participant.
func (b *Buffer) Snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Duration returns the playback duration of the buffered audio.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return PCMDuration(len(b.data))
}

// UserID returns the participant this buffer belongs to.
func (b *Buffer) UserID() uint64 {
	return b.userID
}

// LastWrite returns the timestamp of the most recent appended chunk.
func (b *Buffer) LastWrite() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWrite
}

// Stats returns current buffer statistics.
func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BufferStats{
		UserID:       b.userID,
		Bytes:        len(b.data),
		Frames:       b.frames,
		SilenceBytes: b.silenceBytes,
		Duration:     PCMDuration(len(b.data)),
		LastWrite:    b.lastWrite,
	}
}
