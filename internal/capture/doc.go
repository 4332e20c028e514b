// Package capture defines and validates the constraints applied while a
// recording session buffers participant audio: the silence-gap fill limit
// and the participant allow/deny lists.
package capture
