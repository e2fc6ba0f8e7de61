// Package limits provides centralized packet size limits for the broadcast media.
// This ensures consistent validation across the transport variants.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxDatagramPacket is the largest broadcast datagram sent by the UDP variant (1436 bytes).
	// This keeps a full packet inside one Ethernet frame after IP/UDP headers.
	MaxDatagramPacket = 1436

	// MaxLinkLayerPacket is the largest vendor-broadcast link-layer frame payload (250 bytes).
	// This matches the action-frame limit of the peers this relay interoperates with.
	MaxLinkLayerPacket = 250

	// MaxReceivePacket is the largest packet accepted on receive and the upper
	// bound on any configured MTU. Longer packets are dropped whole.
	MaxReceivePacket = 2048

	// SampleSize is the encoded size of one PCM sample in a payload.
	SampleSize = 2
)

var (
	// ErrHeaderTooLarge indicates a header leaves no room for a sample in the packet
	ErrHeaderTooLarge = errors.New("header too large")

	// ErrPacketTooSmall indicates a packet shorter than the configured header
	ErrPacketTooSmall = errors.New("packet too small")

	// ErrInvalidMTU indicates an MTU that cannot carry a single sample or
	// exceeds MaxReceivePacket
	ErrInvalidMTU = errors.New("invalid mtu")

	// ErrPacketTooLarge indicates a received packet longer than MaxReceivePacket
	ErrPacketTooLarge = errors.New("packet too large")
)

// ValidateMTU checks that mtu can carry at least one sample and that every
// packet it produces fits the receive buffer of a peer.
func ValidateMTU(mtu int) error {
	if mtu < SampleSize {
		return fmt.Errorf("%w: %d bytes cannot carry a %d-byte sample", ErrInvalidMTU, mtu, SampleSize)
	}
	if mtu > MaxReceivePacket {
		return fmt.Errorf("%w: %d bytes exceeds the %d-byte receive limit", ErrInvalidMTU, mtu, MaxReceivePacket)
	}
	return nil
}

// ValidateHeader validates a packet header against the medium MTU.
// The header must leave room for at least one sample.
func ValidateHeader(header []byte, mtu int) error {
	if err := ValidateMTU(mtu); err != nil {
		return err
	}
	if len(header)+SampleSize > mtu {
		return fmt.Errorf("%w: header size %d leaves no payload in %d-byte packet", ErrHeaderTooLarge, len(header), mtu)
	}
	return nil
}

// ValidatePacket checks that a received packet is at least as long as the
// header and no longer than MaxReceivePacket.
func ValidatePacket(packet []byte, headerSize int) error {
	if len(packet) > MaxReceivePacket {
		return fmt.Errorf("%w: size %d exceeds %d", ErrPacketTooLarge, len(packet), MaxReceivePacket)
	}
	if len(packet) < headerSize {
		return fmt.Errorf("%w: size %d below header size %d", ErrPacketTooSmall, len(packet), headerSize)
	}
	return nil
}

// PayloadCapacity returns how many samples fit in one packet of mtu bytes
// after a header of headerSize bytes. It returns 0 when none fit.
func PayloadCapacity(mtu, headerSize int) int {
	if mtu-headerSize < SampleSize {
		return 0
	}
	return (mtu - headerSize) / SampleSize
}
