//go:build !linux

package socket

import "net"

func applyConn(tcpConn *net.TCPConn, cfg Config) error {
	if cfg.NoDelay {
		return tcpConn.SetNoDelay(true)
	}
	return nil
}

func applyListener(*net.TCPListener, Config) error {
	return nil
}

// SetQuickAck is a no-op on platforms without TCP_QUICKACK.
func SetQuickAck(fd int) error { return nil }
