// Package audio handles per-participant PCM buffering and WAV container framing.
// It implements append-only audio accumulation with timestamp-based silence
// gap filling, and RIFF/WAV encoding of raw PCM recording payloads.
package audio
