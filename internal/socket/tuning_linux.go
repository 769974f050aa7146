//go:build linux

package socket

import (
	"net"

	"golang.org/x/sys/unix"
)

func applyConn(tcpConn *net.TCPConn, cfg Config) error {
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	var lastErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		if cfg.NoDelay {
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
				lastErr = err
				return
			}
		}
		if cfg.RecvBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuffer)
		}
		if cfg.SendBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuffer)
		}
		if cfg.KeepAlive {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
			if cfg.KeepAliveIdle > 0 {
				_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, cfg.KeepAliveIdle)
			}
			if cfg.KeepAliveInterval > 0 {
				_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, cfg.KeepAliveInterval)
			}
			if cfg.KeepAliveCount > 0 {
				_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, cfg.KeepAliveCount)
			}
		}
		if cfg.QuickAck {
			_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
		}
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return lastErr
}

func applyListener(tcpListener *net.TCPListener, cfg Config) error {
	if cfg.DeferAccept <= 0 {
		return nil
	}
	rawConn, err := tcpListener.SyscallConn()
	if err != nil {
		return err
	}
	var lastErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		lastErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, cfg.DeferAccept)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return lastErr
}

// SetQuickAck re-arms TCP_QUICKACK on fd. TCP_QUICKACK is cleared by the
// kernel after the next ACK, so a connection wanting persistent quick-ack
// behavior must call this after every read.
func SetQuickAck(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
}
