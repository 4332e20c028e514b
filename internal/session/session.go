package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SoniCord-Development/sonicord/internal/audio"
	"github.com/SoniCord-Development/sonicord/internal/capture"
)

// State identifies where a recording session is in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
)

// InvalidStateError reports an operation invoked in a lifecycle state
// that forbids it. It always indicates an ordering bug at the call site
// and is never retried internally.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not allowed while session is %s", e.Op, e.State)
}

// Session accumulates raw per-participant PCM audio for one recording.
// Buffers are created lazily on a participant's first frame and never
// removed mid-session. A session cannot be restarted once stopped; a new
// capture requires a fresh session.
type Session struct {
	logger *slog.Logger
	filter *capture.Filter

	mu           sync.RWMutex
	state        State
	participants map[uint64]*audio.Buffer
	startedAt    time.Time
	stoppedAt    time.Time
}

// New creates an idle session constrained by the given capture filter.
// A nil filter falls back to the capture defaults.
func New(logger *slog.Logger, filter *capture.Filter) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		// Default construction cannot fail validation.
		filter, _ = capture.NewFilter()
	}

	return &Session{
		logger:       logger,
		filter:       filter,
		state:        StateIdle,
		participants: make(map[uint64]*audio.Buffer),
	}
}

// Start transitions the session from Idle to Recording.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return &InvalidStateError{Op: "start", State: s.state}
	}

	s.state = StateRecording
	s.startedAt = time.Now()

	s.logger.Info("Recording started")
	return nil
}

// ReceiveFrame appends one raw PCM chunk to the participant's buffer,
// creating the buffer on first occurrence. Frames for the same
// participant must be delivered in arrival order; frames for different
// participants may arrive concurrently. Frames from participants the
// capture filter does not permit are dropped silently.
//
// The session lock is held across the append so that a frame in flight
// can never land after Stop has returned; each buffer's own mutex keeps
// same-participant writes serialized while different participants
// proceed under the shared read lock.
func (s *Session) ReceiveFrame(userID uint64, chunk []byte, at time.Time) error {
	s.mu.RLock()
	if s.state != StateRecording {
		state := s.state
		s.mu.RUnlock()
		return &InvalidStateError{Op: "receive frame", State: state}
	}

	if buf, ok := s.participants[userID]; ok {
		defer s.mu.RUnlock()
		buf.Append(chunk, at)
		return nil
	}
	s.mu.RUnlock()

	if !s.filter.Permits(userID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock: stop may have won the race, or
	// another frame may have created the buffer already.
	if s.state != StateRecording {
		return &InvalidStateError{Op: "receive frame", State: s.state}
	}

	buf, ok := s.participants[userID]
	if !ok {
		buf = audio.NewBuffer(userID, s.filter.MaxSilenceGap)
		s.participants[userID] = buf

		s.logger.Debug("Participant buffer created",
			slog.Uint64("user_id", userID),
		)
	}

	buf.Append(chunk, at)
	return nil
}

// Stop transitions the session from Recording to Stopped, after which
// buffers are read-only and conversion is permitted. Calling Stop again
// once stopped is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		s.state = StateStopped
		s.stoppedAt = time.Now()

		s.logger.Info("Recording stopped",
			slog.Duration("duration", s.stoppedAt.Sub(s.startedAt)),
			slog.Int("participants", len(s.participants)),
		)
		return nil

	case StateStopped:
		return nil

	default:
		return &InvalidStateError{Op: "stop", State: s.state}
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Recording reports whether frames are currently accepted.
func (s *Session) Recording() bool {
	return s.State() == StateRecording
}

// Users returns the participants that have at least one buffered frame.
func (s *Session) Users() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]uint64, 0, len(s.participants))
	for userID := range s.participants {
		users = append(users, userID)
	}

	return users
}

// Buffer returns the audio buffer for the given participant.
func (s *Session) Buffer(userID uint64) (*audio.Buffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.participants[userID]
	return buf, ok
}

// StartedAt returns the time recording began.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// StoppedAt returns the time recording finished.
func (s *Session) StoppedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stoppedAt
}

// Info returns a snapshot of session metadata for monitoring.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buffered int
	for _, buf := range s.participants {
		buffered += buf.Len()
	}

	return Info{
		State:         s.state,
		Participants:  len(s.participants),
		BufferedBytes: buffered,
		StartedAt:     s.startedAt,
		StoppedAt:     s.stoppedAt,
	}
}

// Info represents session metadata for monitoring and APIs.
type Info struct {
	State         State     `json:"state"`
	Participants  int       `json:"participants"`
	BufferedBytes int       `json:"buffered_bytes"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	StoppedAt     time.Time `json:"stopped_at,omitempty"`
}
