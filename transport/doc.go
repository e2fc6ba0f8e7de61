// Package transport carries PCM audio between stations over an unreliable
// broadcast medium.
//
// Every medium shares the same packet format: an optional fixed header
// followed by raw little-endian int16 samples, with no length prefix. The
// sender accumulates samples and sends a packet as soon as the payload
// reaches the medium's capacity; Flush sends the short remainder at the end
// of a transmit burst. The receive path runs on its own goroutine, drops
// packets whose header does not match, and pushes the payload into a
// SampleWriter, normally the jitter buffer.
//
// Two media are provided:
//
//   - DatagramLink: UDP broadcast on port 42005 (NewUDPBroadcast), or any
//     net.PacketConn such as the simulated medium (NewDatagramLink).
//   - LinkLayerLink: broadcast link-layer frames on an AF_PACKET socket,
//     with the EtherType acting as the logical channel. Linux only.
//
// Example:
//
//	buf, _ := jitter.NewBuffer(jitter.DefaultCapacity)
//	link, err := transport.NewUDPBroadcast(transport.UDPConfig{}, buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := link.Begin(); err != nil {
//	    log.Fatal(err)
//	}
//	defer link.Close()
//
// Send failures are counted in Statistics and returned; they are never retried.
package transport
