// Package session owns the voice recording lifecycle. It enforces the
// Idle -> Recording -> Stopped state machine, maps participants to their
// audio buffers, and serializes frame delivery per participant.
package session
