// Package session arbitrates the single half-duplex audio path of a station.
//
// The [Controller] owns the microphone source, the speaker sink and the
// outbound side of the transport link, and shares only the jitter buffer with
// the link's receive goroutine. Each iteration it runs the housekeeping hook
// when due, polls push-to-talk, and then either plays one frame from the
// jitter buffer or performs a whole transmit burst.
//
// A transmit burst lasts at least the configured minimum (one second by
// default) and for as long as the button stays held afterwards, so a brief
// tap still produces an audible message. Mode changes are observed at frame
// boundaries, 8 ms at 16 kHz with 128-sample frames.
//
// Failures inside an iteration never escape: they are logged, counted in
// [Statistics], and the next iteration proceeds. Only a sink that cannot be
// started at bring-up makes Run return an error.
package session
