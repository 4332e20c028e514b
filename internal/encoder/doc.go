// Package encoder converts a finished recording's raw PCM payload into its
// output format. It provides in-process passthrough and WAV container
// wrapping, plus external transcoding that drives an encoder process
// through stdin/stdout pipes and classifies its failures.
package encoder
