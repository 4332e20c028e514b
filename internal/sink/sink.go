package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SoniCord-Development/sonicord/internal/capture"
	"github.com/SoniCord-Development/sonicord/internal/encoder"
	"github.com/SoniCord-Development/sonicord/internal/metrics"
	"github.com/SoniCord-Development/sonicord/internal/session"
)

// ErrPrematureFormat is returned when conversion is requested before the
// recording session has stopped. Converting while buffers are still
// mutable would produce an inconsistent payload, so this guard is hard.
var ErrPrematureFormat = errors.New("audio may only be formatted after recording is finished")

// Results maps each successfully converted participant to its formatted
// audio.
type Results map[uint64]*encoder.FormattedAudio

// ConvertErrors aggregates per-participant conversion failures. A failed
// participant never affects the others' buffers or conversions.
type ConvertErrors struct {
	Errors map[uint64]error
}

func (e *ConvertErrors) Error() string {
	users := make([]uint64, 0, len(e.Errors))
	for userID := range e.Errors {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	parts := make([]string, 0, len(users))
	for _, userID := range users {
		parts = append(parts, fmt.Sprintf("user %d: %v", userID, e.Errors[userID]))
	}
	return fmt.Sprintf("conversion failed for %d participant(s): %s",
		len(users), strings.Join(parts, "; "))
}

// CompletionFunc is invoked as each participant's conversion finishes.
type CompletionFunc func(userID uint64, formatted *encoder.FormattedAudio)

// Sink owns one capture-then-convert pipeline: a recording session, the
// capture constraints, and the encoder capability applied to every
// participant once recording has finished.
type Sink struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	session    *session.Session
	capability encoder.Capability
	onComplete CompletionFunc
}

// Option configures optional sink collaborators.
type Option func(*Sink)

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

// WithCompletion registers a callback delivered once per participant as
// its conversion finishes.
func WithCompletion(fn CompletionFunc) Option {
	return func(s *Sink) {
		s.onComplete = fn
	}
}

// New creates a sink with a fresh idle session.
func New(logger *slog.Logger, filter *capture.Filter, capability encoder.Capability, opts ...Option) *Sink {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{
		logger:     logger,
		session:    session.New(logger, filter),
		capability: capability,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins accepting frames.
func (s *Sink) Start() error {
	return s.session.Start()
}

// Write delivers one participant frame to the session.
func (s *Sink) Write(userID uint64, chunk []byte, at time.Time) error {
	if err := s.session.ReceiveFrame(userID, chunk, at); err != nil {
		if s.metrics != nil {
			s.metrics.FramesRejected.Inc()
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.FramesReceived.Inc()
		s.metrics.BytesBuffered.Add(float64(len(chunk)))
		s.metrics.Participants.Set(float64(len(s.session.Users())))
	}

	return nil
}

// Stop finishes capture and enables conversion. Safe to call repeatedly.
func (s *Sink) Stop() error {
	return s.session.Stop()
}

// Session exposes the underlying recording session for monitoring.
func (s *Sink) Session() *session.Session {
	return s.session
}

// Encoding returns the output tag of the configured capability.
func (s *Sink) Encoding() string {
	return s.capability.Encoding()
}

// Convert runs the configured capability once per participant,
// concurrently, and returns the formatted audio for every participant
// that converted cleanly. Participants whose conversion failed are
// reported in a ConvertErrors; their failure does not disturb the
// others. Convert is permitted only after the session has stopped and
// spawns nothing otherwise.
func (s *Sink) Convert(ctx context.Context) (Results, error) {
	if s.session.State() != session.StateStopped {
		return nil, ErrPrematureFormat
	}

	users := s.session.Users()
	results := make(Results, len(users))
	failures := make(map[uint64]error)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, userID := range users {
		buf, ok := s.session.Buffer(userID)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(userID uint64, raw []byte) {
			defer wg.Done()

			formatted, err := s.convertOne(ctx, userID, raw)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[userID] = err
				return
			}
			results[userID] = formatted
		}(userID, buf.Snapshot())
	}

	wg.Wait()

	if len(failures) > 0 {
		return results, &ConvertErrors{Errors: failures}
	}

	return results, nil
}

// convertOne formats a single participant's payload and fires the
// completion callback on success.
func (s *Sink) convertOne(ctx context.Context, userID uint64, raw []byte) (*encoder.FormattedAudio, error) {
	encoding := s.capability.Encoding()

	if s.metrics != nil {
		s.metrics.ConversionsStarted.WithLabelValues(encoding).Inc()
	}

	start := time.Now()
	formatted, err := s.capability.FormatAudio(ctx, raw)
	elapsed := time.Since(start)

	if err != nil {
		if s.metrics != nil {
			s.metrics.ConversionsFailed.WithLabelValues(encoding).Inc()
		}

		s.logger.Error("Conversion failed",
			slog.Uint64("user_id", userID),
			slog.String("encoding", encoding),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	size, serr := outputSize(formatted.File)
	if serr != nil {
		// A stream that cannot seek back to the start is unusable.
		if s.metrics != nil {
			s.metrics.ConversionsFailed.WithLabelValues(encoding).Inc()
		}
		return nil, fmt.Errorf("failed to measure formatted audio: %w", serr)
	}

	if s.metrics != nil {
		s.metrics.ConversionsSucceeded.WithLabelValues(encoding).Inc()
		s.metrics.ConversionDuration.Observe(elapsed.Seconds())
		s.metrics.OutputBytes.Observe(float64(size))
	}

	s.logger.Info("Conversion completed",
		slog.Uint64("user_id", userID),
		slog.String("encoding", encoding),
		slog.Int("input_bytes", len(raw)),
		slog.Int64("output_bytes", size),
		slog.Duration("elapsed", elapsed),
	)

	if s.onComplete != nil {
		s.onComplete(userID, formatted)
	}

	return formatted, nil
}

// outputSize measures a seekable stream and rewinds it to the start.
func outputSize(f io.ReadSeeker) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	return size, nil
}
