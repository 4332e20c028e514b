package capture

import (
	"fmt"
	"time"
)

// DefaultMaxSilenceGap bounds the silence inserted for a single gap
// between audio bursts when no override is supplied.
const DefaultMaxSilenceGap = 5 * time.Second

// Filter describes the capture constraints consumed by a recording
// session. The zero value is not usable; construct with NewFilter so
// defaults are merged and the result validated.
type Filter struct {
	// MaxSilenceGap caps the zero-filled silence inserted between two
	// bursts of a participant's audio. Zero disables gap filling.
	MaxSilenceGap time.Duration

	// AllowedUsers, when non-empty, restricts buffering to the listed
	// participants. DeniedUsers removes participants regardless of the
	// allow list.
	AllowedUsers map[uint64]bool
	DeniedUsers  map[uint64]bool
}

// Option overrides one default capture constraint.
type Option func(*Filter)

// WithMaxSilenceGap sets the silence-gap fill cap. Zero disables filling.
func WithMaxSilenceGap(gap time.Duration) Option {
	return func(f *Filter) {
		f.MaxSilenceGap = gap
	}
}

// WithAllowedUsers restricts buffering to the given participants.
func WithAllowedUsers(users ...uint64) Option {
	return func(f *Filter) {
		f.AllowedUsers = make(map[uint64]bool, len(users))
		for _, u := range users {
			f.AllowedUsers[u] = true
		}
	}
}

// WithDeniedUsers excludes the given participants from buffering.
func WithDeniedUsers(users ...uint64) Option {
	return func(f *Filter) {
		f.DeniedUsers = make(map[uint64]bool, len(users))
		for _, u := range users {
			f.DeniedUsers[u] = true
		}
	}
}

// NewFilter merges the supplied overrides with defaults and validates
// the result.
func NewFilter(opts ...Option) (*Filter, error) {
	f := &Filter{
		MaxSilenceGap: DefaultMaxSilenceGap,
	}

	for _, opt := range opts {
		opt(f)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("capture filter: %w", err)
	}

	return f, nil
}

// Validate checks the filter for contradictory or out-of-range constraints.
func (f *Filter) Validate() error {
	if f.MaxSilenceGap < 0 {
		return fmt.Errorf("max_silence_gap cannot be negative, got %v", f.MaxSilenceGap)
	}

	for u := range f.AllowedUsers {
		if f.DeniedUsers[u] {
			return fmt.Errorf("user %d is both allowed and denied", u)
		}
	}

	return nil
}

// Permits reports whether audio from the given participant may be buffered.
func (f *Filter) Permits(userID uint64) bool {
	if f.DeniedUsers[userID] {
		return false
	}

	if len(f.AllowedUsers) > 0 {
		return f.AllowedUsers[userID]
	}

	return true
}
