package encoder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/SoniCord-Development/sonicord/internal/audio"
)

func readAll(t *testing.T, f *FormattedAudio) []byte {
	t.Helper()

	data, err := io.ReadAll(f.File)
	if err != nil {
		t.Fatalf("Failed to read formatted audio: %v", err)
	}
	return data
}

func TestPassthroughRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x12, 0x34}, 4096)

	out, err := Passthrough{}.FormatAudio(context.Background(), raw)
	if err != nil {
		t.Fatalf("FormatAudio failed: %v", err)
	}

	if out.Encoding != "pcm" {
		t.Errorf("Expected encoding pcm, got %s", out.Encoding)
	}

	if !bytes.Equal(readAll(t, out), raw) {
		t.Error("Passthrough output does not equal input")
	}
}

func TestFormattedAudioSeekedToStart(t *testing.T) {
	out, err := Passthrough{}.FormatAudio(context.Background(), []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FormatAudio failed: %v", err)
	}

	pos, err := out.File.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	if pos != 0 {
		t.Errorf("Expected stream at offset 0, got %d", pos)
	}
}

func TestContainerWrap(t *testing.T) {
	raw := make([]byte, audio.ByteRate) // 1s of silence

	out, err := ContainerWrap{}.FormatAudio(context.Background(), raw)
	if err != nil {
		t.Fatalf("FormatAudio failed: %v", err)
	}

	if out.Encoding != "wav" {
		t.Errorf("Expected encoding wav, got %s", out.Encoding)
	}

	data := readAll(t, out)
	if err := audio.ValidateWAV(data); err != nil {
		t.Fatalf("Output is not a valid WAV file: %v", err)
	}

	duration, err := audio.GetWAVDuration(data)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	if duration != time.Second {
		t.Errorf("Expected 1s duration, got %v", duration)
	}
}

func TestContainerWrapRejectsUnalignedPayload(t *testing.T) {
	if _, err := (ContainerWrap{}).FormatAudio(context.Background(), []byte{1}); err == nil {
		t.Error("Expected error for unaligned payload")
	}
}

func TestExternalTranscodeToolNotFound(t *testing.T) {
	enc := ExternalTranscode{
		Tool: "sonicord-test-no-such-encoder",
		Args: []string{"-"},
		Tag:  "mkv",
	}

	_, err := enc.FormatAudio(context.Background(), make([]byte, 64))

	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ToolNotFoundError, got %v", err)
	}

	if notFound.Tool != enc.Tool {
		t.Errorf("Expected error to carry tool name %q, got %q", enc.Tool, notFound.Tool)
	}
}

func TestExternalTranscodeNonZeroExit(t *testing.T) {
	enc := ExternalTranscode{
		Tool: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
		Tag:  "mkv",
	}

	_, err := enc.FormatAudio(context.Background(), make([]byte, 64))

	var failed *ConversionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected ConversionFailedError, got %v", err)
	}

	if failed.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", failed.ExitCode)
	}

	if failed.Stderr != "boom" {
		t.Errorf("Expected stderr diagnostics, got %q", failed.Stderr)
	}
}

func TestExternalTranscodeNoOutput(t *testing.T) {
	// Exits zero without writing anything usable to stdout.
	enc := ExternalTranscode{
		Tool: "sh",
		Args: []string{"-c", "cat > /dev/null"},
		Tag:  "mkv",
	}

	_, err := enc.FormatAudio(context.Background(), make([]byte, 64))

	var failed *ConversionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected ConversionFailedError, got %v", err)
	}
}

func TestExternalTranscodeLargePayload(t *testing.T) {
	// Several megabytes, far beyond any pipe buffer: a sequential
	// write-then-read implementation would deadlock here.
	raw := bytes.Repeat([]byte{0xA5}, 8<<20)

	enc := ExternalTranscode{Tool: "cat", Tag: "pcm"}

	done := make(chan struct{})
	var out *FormattedAudio
	var err error
	go func() {
		defer close(done)
		out, err = enc.FormatAudio(context.Background(), raw)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Conversion hung on a large payload")
	}

	if err != nil {
		t.Fatalf("FormatAudio failed: %v", err)
	}

	if !bytes.Equal(readAll(t, out), raw) {
		t.Error("Large payload was not piped through intact")
	}
}

func TestExternalTranscodeConcurrent(t *testing.T) {
	payloads := map[byte][]byte{
		0x11: bytes.Repeat([]byte{0x11}, 1<<20),
		0x22: bytes.Repeat([]byte{0x22}, 1<<20),
	}

	enc := ExternalTranscode{Tool: "cat", Tag: "pcm"}

	var wg sync.WaitGroup
	for marker, raw := range payloads {
		wg.Add(1)
		go func(marker byte, raw []byte) {
			defer wg.Done()

			out, err := enc.FormatAudio(context.Background(), raw)
			if err != nil {
				t.Errorf("FormatAudio for 0x%02x failed: %v", marker, err)
				return
			}

			data, err := io.ReadAll(out.File)
			if err != nil {
				t.Errorf("Read for 0x%02x failed: %v", marker, err)
				return
			}

			if len(data) != len(raw) {
				t.Errorf("Payload 0x%02x: expected %d bytes, got %d", marker, len(raw), len(data))
				return
			}
			for _, v := range data {
				if v != marker {
					t.Errorf("Payload 0x%02x contains foreign byte 0x%02x", marker, v)
					return
				}
			}
		}(marker, raw)
	}
	wg.Wait()
}

func TestExternalTranscodeCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Never reads stdin and never exits on its own; cancellation must
	// kill it and release the pipes.
	enc := ExternalTranscode{Tool: "sleep", Args: []string{"60"}, Tag: "pcm"}

	start := time.Now()
	_, err := enc.FormatAudio(ctx, make([]byte, 64))

	if err == nil {
		t.Fatal("Expected error after cancellation")
	}

	var failed *ConversionFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected ConversionFailedError, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Cancellation took too long: %v", elapsed)
	}
}

func TestExternalTranscodeWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	// 1s of silent 48kHz stereo PCM through ffmpeg's WAV muxer, probed
	// back for duration.
	raw := make([]byte, audio.ByteRate)

	enc := ExternalTranscode{Tool: DefaultTool, Args: ffmpegArgs("wav"), Tag: "wav"}

	out, err := enc.FormatAudio(context.Background(), raw)
	if err != nil {
		t.Fatalf("FormatAudio failed: %v", err)
	}

	if out.Encoding != "wav" {
		t.Errorf("Expected encoding wav, got %s", out.Encoding)
	}

	data := readAll(t, out)
	if err := audio.ValidateWAV(data); err != nil {
		t.Fatalf("ffmpeg output is not a valid WAV file: %v", err)
	}

	duration, err := audio.GetWAVDuration(data)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	// Allow one frame of muxer rounding.
	if diff := (duration - time.Second).Abs(); diff > 25*time.Millisecond {
		t.Errorf("Expected ~1s duration, got %v", duration)
	}
}

func TestForEncoding(t *testing.T) {
	for _, tag := range Encodings() {
		t.Run(tag, func(t *testing.T) {
			c, err := ForEncoding(tag, "")
			if err != nil {
				t.Fatalf("ForEncoding(%q) failed: %v", tag, err)
			}

			if c.Encoding() != tag {
				t.Errorf("Expected encoding %q, got %q", tag, c.Encoding())
			}
		})
	}

	if _, err := ForEncoding("flac", ""); err == nil {
		t.Error("Expected error for unregistered encoding")
	}
}

func TestForEncodingToolOverride(t *testing.T) {
	c, err := ForEncoding("mkv", "/opt/ffmpeg/bin/ffmpeg")
	if err != nil {
		t.Fatalf("ForEncoding failed: %v", err)
	}

	ext, ok := c.(ExternalTranscode)
	if !ok {
		t.Fatalf("Expected ExternalTranscode, got %T", c)
	}

	if ext.Tool != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Tool override not applied, got %q", ext.Tool)
	}

	// In-process capabilities ignore the tool override.
	if _, err := ForEncoding("wav", "/opt/ffmpeg/bin/ffmpeg"); err != nil {
		t.Errorf("Tool override should be ignored for wav, got %v", err)
	}
}
