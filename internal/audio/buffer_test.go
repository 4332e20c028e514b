package audio

import (
	"bytes"
	"testing"
	"time"
)

func TestNewBuffer(t *testing.T) {
	userID := uint64(80088008800880088)

	buffer := NewBuffer(userID, time.Second)

	if buffer == nil {
		t.Fatal("NewBuffer returned nil")
	}

	if buffer.UserID() != userID {
		t.Errorf("Expected user ID %d, got %d", userID, buffer.UserID())
	}

	if buffer.Len() != 0 {
		t.Errorf("Expected initial length 0, got %d", buffer.Len())
	}

	if !buffer.LastWrite().IsZero() {
		t.Error("Expected zero last write time before any append")
	}
}

func TestAppendConcatenatesInOrder(t *testing.T) {
	buffer := NewBuffer(1, time.Second)
	now := time.Now()

	chunks := [][]byte{
		bytes.Repeat([]byte{0x01, 0x02}, FrameBytes/2),
		bytes.Repeat([]byte{0x03, 0x04}, FrameBytes/2),
		bytes.Repeat([]byte{0x05, 0x06}, FrameBytes/2),
	}

	var want []byte
	for i, chunk := range chunks {
		// Contiguous frames: one frame duration apart, no silence inserted.
		buffer.Append(chunk, now.Add(time.Duration(i)*FrameDuration))
		want = append(want, chunk...)
	}

	got := buffer.Snapshot()
	if !bytes.Equal(got, want) {
		t.Errorf("Snapshot mismatch: got %d bytes, want %d bytes", len(got), len(want))
	}

	stats := buffer.Stats()
	if stats.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", stats.Frames)
	}

	if stats.SilenceBytes != 0 {
		t.Errorf("Expected no silence fill for contiguous frames, got %d bytes", stats.SilenceBytes)
	}
}

func TestSnapshotEmptyBuffer(t *testing.T) {
	buffer := NewBuffer(1, time.Second)

	snapshot := buffer.Snapshot()
	if snapshot == nil {
		t.Fatal("Snapshot returned nil for empty buffer")
	}

	if len(snapshot) != 0 {
		t.Errorf("Expected empty snapshot, got %d bytes", len(snapshot))
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	buffer := NewBuffer(1, time.Second)
	buffer.Append([]byte{1, 2, 3, 4}, time.Now())

	first := buffer.Snapshot()
	first[0] = 0xFF

	second := buffer.Snapshot()
	if second[0] != 1 {
		t.Error("Mutating a snapshot changed the buffer contents")
	}
}

func TestSilenceGapFill(t *testing.T) {
	buffer := NewBuffer(1, 5*time.Second)
	now := time.Now()

	chunk := make([]byte, FrameBytes)
	buffer.Append(chunk, now)

	// Second chunk arrives 520ms later: 500ms beyond the nominal frame
	// spacing must be zero-filled.
	buffer.Append(chunk, now.Add(520*time.Millisecond))

	wantFill := PCMBytes(500 * time.Millisecond)
	wantLen := 2*FrameBytes + wantFill

	if buffer.Len() != wantLen {
		t.Errorf("Expected %d bytes after gap fill, got %d", wantLen, buffer.Len())
	}

	stats := buffer.Stats()
	if stats.SilenceBytes != uint64(wantFill) {
		t.Errorf("Expected %d silence bytes, got %d", wantFill, stats.SilenceBytes)
	}

	// The filled region must be zero-valued.
	data := buffer.Snapshot()
	for i := FrameBytes; i < FrameBytes+wantFill; i++ {
		if data[i] != 0 {
			t.Fatalf("Expected silence at byte %d, got 0x%02x", i, data[i])
		}
	}
}

func TestSilenceGapFillCapped(t *testing.T) {
	maxGap := time.Second
	buffer := NewBuffer(1, maxGap)
	now := time.Now()

	chunk := make([]byte, FrameBytes)
	buffer.Append(chunk, now)
	buffer.Append(chunk, now.Add(time.Minute))

	wantFill := PCMBytes(maxGap)
	if buffer.Len() != 2*FrameBytes+wantFill {
		t.Errorf("Expected gap fill capped at %d bytes, got %d extra",
			wantFill, buffer.Len()-2*FrameBytes)
	}
}

func TestSilenceGapFillDisabled(t *testing.T) {
	buffer := NewBuffer(1, 0)
	now := time.Now()

	chunk := make([]byte, FrameBytes)
	buffer.Append(chunk, now)
	buffer.Append(chunk, now.Add(time.Minute))

	if buffer.Len() != 2*FrameBytes {
		t.Errorf("Expected no gap fill when disabled, got %d bytes", buffer.Len())
	}
}

func TestBufferDuration(t *testing.T) {
	buffer := NewBuffer(1, 0)

	// One second of audio.
	buffer.Append(make([]byte, ByteRate), time.Now())

	if buffer.Duration() != time.Second {
		t.Errorf("Expected 1s duration, got %v", buffer.Duration())
	}
}

func TestPCMConversions(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		bytes    int
	}{
		{"one second", time.Second, ByteRate},
		{"one frame", FrameDuration, FrameBytes},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PCMBytes(tt.duration); got != tt.bytes {
				t.Errorf("PCMBytes(%v) = %d, want %d", tt.duration, got, tt.bytes)
			}
			if got := PCMDuration(tt.bytes); got != tt.duration {
				t.Errorf("PCMDuration(%d) = %v, want %v", tt.bytes, got, tt.duration)
			}
		})
	}
}

func TestPCMBytesBlockAligned(t *testing.T) {
	// 1ms at 192000 B/s is 192 bytes, already aligned; 1ms plus a hair
	// must still come out block aligned.
	n := PCMBytes(1*time.Millisecond + 3*time.Microsecond)
	if n%BlockAlign != 0 {
		t.Errorf("PCMBytes returned unaligned count %d", n)
	}
}
