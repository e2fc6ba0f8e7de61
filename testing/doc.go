// Package testing provides an in-memory broadcast medium and audio test
// doubles for deterministic testing and simulation of walkie-talkie stations.
//
// # Overview
//
// [Medium] mirrors a shared radio channel: every [Endpoint] attached to it
// is a net.PacketConn, and a packet written to [Broadcast] reaches every
// other endpoint. The medium keeps a delivery log for verification and can
// drop packets through a loss function to exercise the jitter buffer under
// packet loss.
//
//	medium := testing.NewMedium()
//	a, b := medium.Attach(), medium.Attach()
//	linkA, _ := transport.NewDatagramLink(a, testing.Broadcast, limits.MaxDatagramPacket, bufA)
//	linkB, _ := transport.NewDatagramLink(b, testing.Broadcast, limits.MaxDatagramPacket, bufB)
//
// # Audio Doubles
//
// [FakeSource] produces a deterministic sample sequence and exposes a hook
// run after every read, which tests use to advance a mock clock by one frame.
// [FakeSink] records what it was asked to play. Both enforce the Start/Stop
// lifecycle of audio.Source and audio.Sink. With Realtime set they block
// for the real duration of each frame, which is what simulation mode uses.
//
// [Button], [Indicator] and [Recorder] record how the controller drives
// its collaborators.
//
// Import this package under an alias since its name shadows the standard
// library package:
//
//	import testsim "github.com/opd-ai/walkietalkie/testing"
package testing
