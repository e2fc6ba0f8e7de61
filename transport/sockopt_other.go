//go:build !unix

package transport

import "syscall"

func broadcastControl(network, address string, c syscall.RawConn) error {
	return nil
}
