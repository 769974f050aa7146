// Package socket applies TCP-level tuning to accepted connections and
// listening sockets: Nagle's algorithm disabled, buffer sizing, and
// keepalive, with Linux-only options (TCP_QUICKACK, TCP_DEFER_ACCEPT)
// layered on top where the kernel supports them.
//
// Ground: shockwave/pkg/shockwave/socket/tuning.go's Config/Apply/
// ApplyListener shape, rebuilt on golang.org/x/sys/unix instead of the raw
// syscall package the teacher uses directly — the teacher's own tuning_linux.go
// comment notes "In production, you'd use golang.org/x/sys/unix for proper
// TCPInfo access"; x/sys/unix is wired here for exactly that reason, and was
// only an indirect dependency in the teacher's go.mod before this.
package socket

import "net"

// Config carries the tunable socket options. Zero values mean "leave the
// system default in place".
type Config struct {
	// NoDelay disables Nagle's algorithm. Recommended for HTTP/1.1.
	NoDelay bool

	// RecvBuffer and SendBuffer set SO_RCVBUF/SO_SNDBUF in bytes. 0 means
	// "use the system default" (Linux only; ignored elsewhere).
	RecvBuffer int
	SendBuffer int

	// KeepAlive enables SO_KEEPALIVE with the given idle/interval/count
	// probing parameters (Linux only; ignored elsewhere).
	KeepAlive         bool
	KeepAliveIdle     int // seconds before the first probe
	KeepAliveInterval int // seconds between probes
	KeepAliveCount    int // probes before giving up

	// QuickAck sends immediate ACKs instead of waiting for the delayed-ACK
	// timer (Linux only; ignored elsewhere).
	QuickAck bool

	// DeferAccept delays waking the accept loop until data has arrived on
	// the socket, in seconds (Linux only; ignored elsewhere, 0 disables it).
	DeferAccept int
}

// DefaultConfig returns tuning suited to a keep-alive HTTP/1.1 server:
// Nagle disabled, generous buffers, and conservative keepalive probing.
func DefaultConfig() Config {
	return Config{
		NoDelay:           true,
		RecvBuffer:        256 * 1024,
		SendBuffer:        256 * 1024,
		KeepAlive:         true,
		KeepAliveIdle:     60,
		KeepAliveInterval: 10,
		KeepAliveCount:    3,
		QuickAck:          true,
		DeferAccept:       5,
	}
}

// Apply tunes an accepted connection. Non-TCP connections (e.g. those from
// net.Pipe in tests) are left untouched.
func Apply(conn net.Conn, cfg Config) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return applyConn(tcpConn, cfg)
}

// ApplyListener tunes a listening socket (TCP_DEFER_ACCEPT, which must be set
// before Accept is ever called).
func ApplyListener(l net.Listener, cfg Config) error {
	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		return nil
	}
	return applyListener(tcpListener, cfg)
}
