package encoder

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
)

// ExternalTranscode converts raw PCM by piping it through an external
// encoder process: the full payload is written to the process's stdin
// while its stdout is drained concurrently, and the collected output
// becomes the formatted payload. The process must exit zero and write a
// complete file of the target format to stdout.
type ExternalTranscode struct {
	// Tool is the encoder executable, resolved via PATH unless absolute.
	Tool string

	// Args is the full argument list. It must describe raw s16le 48kHz
	// stereo input on stdin and the target container on stdout.
	Args []string

	// Tag identifies the resulting format.
	Tag string
}

// Encoding returns the configured output tag.
func (e ExternalTranscode) Encoding() string { return e.Tag }

// FormatAudio spawns the encoder process and runs one conversion.
// Cancelling ctx kills the process and releases its pipes. Failures are
// classified: ToolNotFoundError when the executable is missing,
// ProcessSpawnError when it cannot start, ConversionFailedError when it
// starts but exits abnormally or produces no output.
func (e ExternalTranscode) FormatAudio(ctx context.Context, raw []byte) (*FormattedAudio, error) {
	cmd := exec.CommandContext(ctx, e.Tool, e.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &ProcessSpawnError{Tool: e.Tool, Err: err}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, &ToolNotFoundError{Tool: e.Tool, Err: err}
		}
		return nil, &ProcessSpawnError{Tool: e.Tool, Err: err}
	}

	// Feed stdin from its own goroutine while Wait drains stdout into
	// the buffer. Writing and reading sequentially would deadlock once
	// the payload exceeds the pipe buffer.
	writeDone := make(chan error, 1)
	go func() {
		_, werr := stdin.Write(raw)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		writeDone <- werr
	}()

	waitErr := cmd.Wait()
	writeErr := <-writeDone

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &ConversionFailedError{
				Tool:     e.Tool,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
				Err:      waitErr,
			}
		}
		return nil, &ConversionFailedError{
			Tool:   e.Tool,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    waitErr,
		}
	}

	// The process reported success without consuming the payload; the
	// output cannot be trusted.
	if writeErr != nil {
		return nil, &ConversionFailedError{
			Tool:   e.Tool,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    writeErr,
		}
	}

	if len(raw) > 0 && stdout.Len() == 0 {
		return nil, &ConversionFailedError{
			Tool:   e.Tool,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    errors.New("encoder produced no output"),
		}
	}

	return &FormattedAudio{
		File:     bytes.NewReader(stdout.Bytes()),
		Encoding: e.Tag,
	}, nil
}
