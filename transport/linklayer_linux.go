//go:build linux

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

var broadcastHW = [8]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// htons converts a host-order uint16 to network order as AF_PACKET expects.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}

type afPacketSocket struct {
	fd   int
	dest unix.SockaddrLinklayer
}

// openPacketSocket opens a cooked AF_PACKET socket so the kernel builds the
// Ethernet header and the payload is exactly our packet.
func openPacketSocket(ifname string, etherType uint16) (packetSocket, error) {
	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}

	proto := htons(etherType)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{Protocol: proto, Ifindex: ifi.Index}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}

	tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set receive timeout: %w", err)
	}

	return &afPacketSocket{
		fd: fd,
		dest: unix.SockaddrLinklayer{
			Protocol: proto,
			Ifindex:  ifi.Index,
			Halen:    6,
			Addr:     broadcastHW,
		},
	}, nil
}

func (s *afPacketSocket) Send(payload []byte) error {
	return unix.Sendto(s.fd, payload, 0, &s.dest)
}

func (s *afPacketSocket) Recv(buf []byte) (int, bool, error) {
	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return 0, false, errRecvTimeout
		}
		return 0, false, err
	}
	ll, ok := from.(*unix.SockaddrLinklayer)
	return n, ok && ll.Pkttype == unix.PACKET_OUTGOING, nil
}

func (s *afPacketSocket) Close() error {
	return unix.Close(s.fd)
}
