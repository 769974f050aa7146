// Package server owns the listening socket, the accept loop, per-connection
// lifecycle tracking, graceful shutdown, and aggregate Stats — everything
// spec.md §5 and §6 describe above the per-connection state machine in
// package conn.
//
// Ground: shockwave/pkg/shockwave/server/server.go's BaseServer (Config,
// Stats, connection tracking, Shutdown/Close) and server_shockwave.go's
// ShockwaveServer (ListenAndServe/Serve/handleConnection accept loop),
// restructured around manifest.Manifest dispatch instead of a single stored
// Handler, and around golang.org/x/sync/errgroup for goroutine lifecycle
// management instead of the teacher's raw sync.WaitGroup, since the server
// now has two goroutine populations (the accept loop itself, and one
// goroutine per live connection) that need to be waited on and have their
// first fatal error surfaced together.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignishttp/ignis/internal/socket"
	"github.com/ignishttp/ignis/pkg/ignis/conn"
	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/manifest"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

// Stats accumulates lock-free counters across the server's lifetime, per
// spec.md §6's observability note ("counters only, no Non-goal tracing").
//
// Ground: shockwave/server/server.go's Stats, trimmed to the counters ignis
// actually has a use for (no BytesRead/BytesWritten — those require a
// counting wrapper around every socket read/write, which spec.md's Non-goals
// explicitly excludes as out of scope metrics plumbing).
type Stats struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalRequests     atomic.Uint64 // added as each connection closes
	ConnectionErrors  atomic.Uint64
	StartTime         time.Time
}

// Duration returns how long the server has been running.
func (s *Stats) Duration() time.Duration { return time.Since(s.StartTime) }

// Server listens for connections, dispatches each through a conn.Connection
// bound to a fixed manifest.Manifest, and coordinates graceful shutdown.
type Server struct {
	cfg      core.Config
	manifest *manifest.Manifest
	ctxPool  *core.ContextPool
	connCfg  conn.Config
	sockCfg  socket.Config

	listener net.Listener
	group    *errgroup.Group

	draining atomic.Bool
	stats    Stats

	connsMu sync.Mutex
	conns   map[string]net.Conn
}

// New builds a Server from a fixed route manifest and config. cfg's
// ErrorHandler defaults to core.DefaultErrorHandler when nil.
func New(cfg core.Config, m *manifest.Manifest) *Server {
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = core.DefaultErrorHandler
	}

	pool := core.NewContextPool()
	pool.Warmup(64)

	s := &Server{
		cfg:      cfg,
		manifest: m,
		ctxPool:  pool,
		sockCfg:  socket.DefaultConfig(),
		conns:    make(map[string]net.Conn),
		connCfg: conn.Config{
			KeepAliveTimeout:         time.Duration(cfg.KeepAliveTimeoutMS) * time.Millisecond,
			RequestTimeout:           time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
			MaxRequestsPerConnection: cfg.MaxRequestsPerConnection,
			MaxBodySize:              0,
			Limits: wire.Limits{
				MaxHeaderSize:  cfg.MaxHeaderSizeBytes,
				MaxHeaderCount: cfg.MaxHeadersCount,
			},
			ErrorHandler: cfg.ErrorHandler,
		},
	}
	s.stats.StartTime = time.Now()
	s.group, _ = errgroup.WithContext(context.Background())
	return s
}

// ListenAndServe binds cfg.Hostname:cfg.Port and serves until Shutdown is
// called or Serve returns a fatal error.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Hostname, s.cfg.EffectivePort())
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until it is closed. Each connection runs in
// its own goroutine managed by an errgroup so Shutdown can wait for every
// in-flight connection to drain.
func (s *Server) Serve(l net.Listener) error {
	if err := socket.ApplyListener(l, s.sockCfg); err != nil {
		// Non-fatal: listener tuning is best-effort (spec.md's socket_tuning
		// note treats these as optimizations, not correctness requirements).
		_ = err
	}

	s.listener = l
	s.group.Go(func() error {
		return s.acceptLoop(l)
	})

	return s.group.Wait()
}

func (s *Server) acceptLoop(l net.Listener) error {
	for {
		rawConn, err := l.Accept()
		if err != nil {
			if s.draining.Load() {
				return nil
			}
			s.stats.ConnectionErrors.Add(1)
			return err
		}

		if err := socket.Apply(rawConn, s.sockCfg); err != nil {
			_ = err // best-effort tuning, never fatal to accepting the connection
		}

		s.stats.TotalConnections.Add(1)
		id := uuid.NewString()
		s.track(id, rawConn)

		s.group.Go(func() error {
			defer s.untrack(id)
			c := conn.New(id, rawConn, s.connCfg, s.manifest, s.ctxPool, &s.draining)
			c.Serve()
			s.stats.TotalRequests.Add(uint64(c.RequestCount()))
			return nil
		})
	}
}

func (s *Server) track(id string, c net.Conn) {
	s.connsMu.Lock()
	s.conns[id] = c
	s.connsMu.Unlock()
	s.stats.ActiveConnections.Add(1)
}

func (s *Server) untrack(id string) {
	s.connsMu.Lock()
	delete(s.conns, id)
	s.connsMu.Unlock()
	s.stats.ActiveConnections.Add(-1)
}

// Shutdown stops accepting new connections and waits for in-flight ones to
// drain on their own (each finishes its current response and then closes,
// per conn.Connection's draining check) until ctx expires, at which point
// remaining connections are force-closed. Mirrors spec.md §5's graceful
// shutdown sequence.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.draining.CompareAndSwap(false, true) {
		return nil
	}
	if s.listener != nil {
		s.listener.Close()
	}

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.closeAllConnections()
		<-done
		return ctx.Err()
	}
}

// Close immediately terminates the server and every open connection.
func (s *Server) Close() error {
	if !s.draining.CompareAndSwap(false, true) {
		return nil
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.closeAllConnections()
	s.group.Wait()
	return nil
}

func (s *Server) closeAllConnections() {
	s.connsMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// Stats returns a snapshot-friendly pointer to the server's live counters.
func (s *Server) Stats() *Stats { return &s.stats }

// Connections returns a snapshot of the number of live connections.
func (s *Server) Connections() uint64 { return uint64(s.stats.ActiveConnections.Load()) }
