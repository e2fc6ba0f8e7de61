// Package jitter provides the playback ring buffer that decouples network
// arrival jitter from steady speaker playback.
//
// The network receive goroutine appends samples with AddSample or AddSamples
// while the session controller drains fixed-size frames with RemoveSamples.
// Neither side ever waits for the other:
//
//   - Overrun: when the ring is full the oldest unread sample is discarded to
//     make room, so latency stays bounded at Cap() samples.
//   - Underrun: when fewer samples are queued than requested, the remainder of
//     the frame is filled with silence, so playback never blocks and never
//     plays stale memory.
//
// Both conditions are counted in Statistics rather than reported as errors.
//
// # Prebuffering
//
// WithPrebuffer(n) makes playback hold silence after the ring runs dry until
// n samples have accumulated again. This trades n samples of added latency for
// fewer audible gaps on a bursty link. It is disabled by default.
//
// # Concurrency
//
// A single mutex guards the indices and the occupancy count, so a partially
// written sample is never visible to the reader and index updates are totally
// ordered with occupancy accounting.
package jitter
