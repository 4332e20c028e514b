// Package sink ties the recording pipeline together: it feeds inbound
// voice frames into a recording session and, once capture has stopped,
// converts each participant's buffer through the configured encoder
// capability with per-participant failure isolation.
package sink
