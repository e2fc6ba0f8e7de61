//go:build !linux

package transport

func openPacketSocket(ifname string, etherType uint16) (packetSocket, error) {
	return nil, ErrUnsupported
}
