// Package audio defines the sample model shared by every stage of the relay:
// the fixed sample rate and frame size, the Source and Sink contracts that
// the capture and playback devices implement, and the little-endian PCM
// codec used on the wire.
//
// # Sample Model
//
// A Sample is a signed 16-bit PCM value at SampleRate Hz. A Frame is a slice
// of FrameSize samples moved per controller iteration:
//
//	frame := make([]int16, audio.FrameSize)
//	n, err := source.Read(frame)
//	if err == nil {
//	    _ = sink.Write(frame[:n])
//	}
//
// # Device Contracts
//
// Source.Read blocks until at least one sample is available and returns the
// number of samples filled. Sink.Write blocks until every sample has been
// accepted by the output pipeline. Only one of the two is started at any
// time; the session controller enforces this because both may claim the
// same peripheral.
//
// # Wire Codec
//
// EncodeSamples and DecodeSamples convert between samples and the raw
// little-endian byte representation carried in transport payloads. There is
// no length prefix; a trailing odd byte is ignored on decode.
package audio
