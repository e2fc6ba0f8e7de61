// Package walkietalkie is a half-duplex push-to-talk audio relay.
//
// Stations share a broadcast medium, either UDP datagrams or raw link-layer
// frames. While the push-to-talk input is held a station captures 16 kHz mono
// PCM from its microphone and broadcasts it in MTU-sized packets; otherwise it
// plays whatever arrives, smoothed by a fixed-size jitter buffer.
//
// The module is organised as:
//
//   - audio: sample format and the Source/Sink device contracts
//   - device: PortAudio and converter-device implementations of those contracts
//   - jitter: the playback ring buffer
//   - limits: packet size limits and validation
//   - transport: packet framing and the datagram and link-layer links
//   - session: the receive/transmit controller loop
//   - interfaces: push-to-talk, indicator, recorder and notifier contracts
//   - recording: WAV capture of transmit bursts and completion notifications
//   - real: GPIO, console and log-backed collaborators
//   - testing: fakes and an in-memory broadcast medium
//   - metrics: Prometheus collectors
//   - config: YAML, .env and environment configuration
//   - factory: station and simulation assembly
//
// The walkietalkie command in cmd/walkietalkie runs one station, or a group
// of simulated stations, from a configuration file.
package walkietalkie
