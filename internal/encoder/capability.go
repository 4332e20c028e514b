package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/SoniCord-Development/sonicord/internal/audio"
)

// FormattedAudio is the finished output of one conversion: a seekable
// stream positioned at offset 0 and the encoding tag downstream
// consumers use to pick a file extension or MIME type. Ownership
// transfers to the caller.
type FormattedAudio struct {
	File     io.ReadSeeker
	Encoding string
}

// Capability converts one participant's raw PCM payload into its output
// format. Implementations are stateless and safe for concurrent use;
// conversion is all-or-nothing and a failed call never returns a
// partial FormattedAudio.
type Capability interface {
	FormatAudio(ctx context.Context, raw []byte) (*FormattedAudio, error)
	Encoding() string
}

// Passthrough returns the raw PCM payload unchanged.
type Passthrough struct{}

// Encoding returns the raw PCM tag.
func (Passthrough) Encoding() string { return "pcm" }

// FormatAudio wraps the raw payload in a seekable stream without
// transforming it.
func (Passthrough) FormatAudio(_ context.Context, raw []byte) (*FormattedAudio, error) {
	return &FormattedAudio{
		File:     bytes.NewReader(raw),
		Encoding: "pcm",
	}, nil
}

// ContainerWrap prepends a WAV header to the raw PCM payload in-process,
// without spawning an external encoder.
type ContainerWrap struct{}

// Encoding returns the WAV container tag.
func (ContainerWrap) Encoding() string { return "wav" }

// FormatAudio frames the raw payload as a RIFF/WAV file.
func (ContainerWrap) FormatAudio(_ context.Context, raw []byte) (*FormattedAudio, error) {
	data, err := audio.EncodeWAV(raw, audio.SampleRate, audio.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap audio in WAV container: %w", err)
	}

	return &FormattedAudio{
		File:     bytes.NewReader(data),
		Encoding: "wav",
	}, nil
}
