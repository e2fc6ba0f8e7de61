// Package limits provides centralized packet size constants and validation functions
// for the broadcast media carried by the transport package.
//
// # Packet Size Hierarchy
//
//   - MaxDatagramPacket (1436 bytes): the largest UDP broadcast datagram. With an
//     empty header this carries 718 samples.
//
//   - MaxLinkLayerPacket (250 bytes): the largest link-layer broadcast frame payload,
//     125 samples with an empty header.
//
//   - MaxReceivePacket (2048 bytes): the largest packet accepted on receive and
//     the largest MTU ValidateMTU allows. Receive buffers hold one byte more so
//     a longer packet is seen as oversized and dropped whole.
//
// # Validation Functions
//
//	if err := limits.ValidateHeader(header, limits.MaxLinkLayerPacket); err != nil {
//	    // ErrHeaderTooLarge or ErrInvalidMTU
//	}
//
//	samples := limits.PayloadCapacity(limits.MaxDatagramPacket, len(header))
//
// # Wire Compatibility
//
// Packets carry the header bytes followed by little-endian 16-bit samples with no
// length prefix. The MTU values must match those of existing peers; a peer that
// sends larger frames on the link-layer medium is truncated by the driver.
package limits
