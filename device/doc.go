// Package device provides the concrete capture and playback paths behind the
// audio.Source and audio.Sink contracts.
//
// Two input variants:
//
//   - I2SSource: a digital bus microphone delivering 32-bit words, captured
//     through a PortAudio int32 stream and reduced to 16-bit samples.
//   - ADCSource: an analog microphone behind a 12-bit converter whose raw
//     words are streamed from a device node, re-centred around mid-scale and
//     scaled to the 16-bit range.
//
// Two output variants:
//
//   - I2SSink: a digital bus amplifier fed through a PortAudio int16 stream.
//   - DACSink: an 8-bit converter fed through a PortAudio unsigned 8-bit stream.
//
// The variant is chosen once at startup by the factory package. Call
// Initialize before starting any PortAudio-backed device and Terminate on
// shutdown.
package device
