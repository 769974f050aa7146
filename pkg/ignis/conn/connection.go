// Package conn drives one keep-alive-aware HTTP/1.1 connection through the
// Reading -> Parsing -> Dispatch -> Writing -> (Idle | Closing) state machine
// spec.md §4.3 describes: it owns the socket, the read/write buffering,
// idle/request timers, and keep-alive accounting, and calls into wire,
// router/manifest, and respond to do the actual parsing, dispatch, and
// serialization.
//
// Ground: shockwave/http11/connection.go's Connection.Serve loop (the
// bufio.Reader/Writer ownership, atomic request counter, deadline-based
// timeouts, and shouldCloseAfterRequest decision), rebuilt around ignis's
// offset-based wire.Parse instead of shockwave's pooled incremental Parser,
// and around a dense handler_id dispatch table (manifest.Manifest) instead
// of a single stored Handler func.
package conn

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/intuitivelabs/bytescase"
	"github.com/valyala/bytebufferpool"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/manifest"
	"github.com/ignishttp/ignis/pkg/ignis/respond"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

var (
	headerContentLength    = []byte("Content-Length")
	headerTransferEncoding = []byte("Transfer-Encoding")
	headerConnection       = []byte("Connection")
	valueChunked           = []byte("chunked")
	valueClose             = []byte("close")
)

// Config bounds one connection's resource usage and timeouts. Built from
// core.Config by the server package.
type Config struct {
	KeepAliveTimeout         time.Duration
	RequestTimeout           time.Duration
	MaxRequestsPerConnection int
	MaxBodySize              int64 // 0 = unlimited; enforced on chunked bodies only, per spec.md §4.3
	Limits                   wire.Limits
	ErrorHandler             core.ErrorHandler
}

// Connection owns one accepted socket's entire request/response lifecycle.
type Connection struct {
	id      string
	rawConn net.Conn
	reader  *bufio.Reader

	cfg      Config
	manifest *manifest.Manifest
	ctxPool  *core.ContextPool

	phase    atomic.Int32
	requests atomic.Int32

	// draining is set by the server during shutdown(deadline); the
	// connection adds Connection: close to its next response and does not
	// re-enter Idle, per spec.md §5's graceful shutdown contract.
	draining *atomic.Bool
}

// New wraps conn for serving, reading up to cfg.Limits.MaxHeaderSize bytes of
// request line + headers per request without reallocating the underlying
// socket buffer.
func New(id string, rawConn net.Conn, cfg Config, m *manifest.Manifest, ctxPool *core.ContextPool, draining *atomic.Bool) *Connection {
	headerBufSize := cfg.Limits.MaxHeaderSize
	if headerBufSize <= 0 {
		headerBufSize = wire.DefaultMaxHeaderSize
	}
	headerBufSize += 4096 // slack for the request line itself

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = core.DefaultErrorHandler
	}

	return &Connection{
		id:       id,
		rawConn:  rawConn,
		reader:   bufio.NewReaderSize(rawConn, headerBufSize),
		cfg:      cfg,
		manifest: m,
		ctxPool:  ctxPool,
		draining: draining,
	}
}

func (c *Connection) Phase() Phase      { return Phase(c.phase.Load()) }
func (c *Connection) setPhase(p Phase)  { c.phase.Store(int32(p)) }
func (c *Connection) RequestCount() int { return int(c.requests.Load()) }
func (c *Connection) ID() string        { return c.id }

// Serve runs the connection's request loop until the peer closes the socket,
// an unrecoverable error occurs, or keep-alive ends. It always closes
// rawConn before returning.
func (c *Connection) Serve() {
	defer c.rawConn.Close()

	for {
		c.setPhase(PhaseReading)
		c.rawConn.SetReadDeadline(time.Now().Add(c.cfg.KeepAliveTimeout))

		res, headerBuf, err := c.readRequestHeaders()
		if err != nil {
			// Idle timeout, EOF, or reset between requests: drop silently,
			// per spec.md §7's connection_reset handling.
			return
		}

		// readRequestHeaders already switched the deadline from
		// KeepAliveTimeout to RequestTimeout the moment the first byte of
		// this request arrived; re-arm it here so the window also covers
		// dispatch and the response write.
		c.rawConn.SetDeadline(time.Now().Add(c.cfg.RequestTimeout))

		if res.State == wire.Error {
			status := 400
			if errors.Is(res.Err, wire.ErrHeadersTooLarge) {
				status = 431
			}
			c.writeFinal(status, nil)
			putBuf(headerBuf)
			return
		}

		c.setPhase(PhaseParsing)
		closeAfter, werr := c.handleOneRequest(res, headerBuf)
		putBuf(headerBuf)
		if werr != nil || closeAfter {
			return
		}

		c.setPhase(PhaseIdle)
	}
}

// handleOneRequest parses body framing, dispatches to the manifest's router,
// invokes the matched handler (or synthesizes 404/405), and writes the
// response. It returns whether the connection should close after this
// response.
func (c *Connection) handleOneRequest(res wire.ParseResult, headerBuf *bytebufferpool.ByteBuffer) (bool, error) {
	headers := wire.NewHeaderView(headerBuf.B, &res)

	clValue, clCount, clAllEqual := headers.Matching(headerContentLength)
	te := headers.Get(headerTransferEncoding)
	chunked := te != nil && bytescase.CmpEq(te, valueChunked)

	if clCount > 0 && chunked {
		c.writeFinal(400, nil)
		return true, wire.ErrSmuggling
	}
	if clCount > 1 && !clAllEqual {
		c.writeFinal(400, nil)
		return true, wire.ErrDuplicateContentLength
	}

	var body []byte
	var bodyBuf *bytebufferpool.ByteBuffer
	switch {
	case chunked:
		decoded, err := c.readChunkedBody()
		if err != nil {
			c.writeFinal(400, nil)
			return true, err
		}
		body = decoded
	case clCount > 0:
		n, perr := wire.ParseContentLength(clValue)
		if perr != nil {
			c.writeFinal(400, nil)
			return true, perr
		}
		b, buf, err := c.readFixedBody(n)
		if err != nil {
			return true, err
		}
		body, bodyBuf = b, buf
		defer putBuf(bodyBuf)
	}

	c.setPhase(PhaseDispatch)
	path := headerBuf.B[res.PathStart:res.PathEnd]
	match := c.manifest.Router.Find(res.MethodCode, path)

	ctx := c.ctxPool.Acquire()
	defer c.ctxPool.Release(ctx)
	ctx.Prepare(res.MethodCode, path, headerBuf.B[res.QueryStart:res.QueryEnd], headers, match, body, c.socketInfo())

	var handlerErr error
	switch {
	case match.Found:
		handlerErr = c.manifest.Handlers[match.HandlerID](ctx)
		if handlerErr != nil {
			c.cfg.ErrorHandler(ctx, handlerErr)
		}
	default:
		if allowed := c.manifest.Router.Allow(path); len(allowed) > 0 {
			ctx.Response().Status = 405
			ctx.SetHeader("Allow", joinMethodNames(allowed))
		} else {
			ctx.Response().Status = 404
		}
	}

	requestNum := c.requests.Add(1)
	// spec.md §7: a handler exception closes the connection out of caution
	// when it may have occurred mid-body; the response says Connection: close.
	willClose := handlerErr != nil ||
		c.draining.Load() ||
		requestClosed(headers) ||
		strings.EqualFold(ctx.Response().Header("Connection"), "close") ||
		(c.cfg.MaxRequestsPerConnection > 0 && int(requestNum) >= c.cfg.MaxRequestsPerConnection)

	c.setPhase(PhaseWriting)
	_, werr := respond.Write(c.rawConn, ctx.Response(), !willClose)
	if werr != nil {
		return true, werr
	}
	return willClose, nil
}

// readRequestHeaders peeks into the connection's bufio.Reader until a
// complete request line + header block is found, copies exactly those bytes
// into an owned buffer (so offsets survive past the subsequent Discard), and
// discards them from the reader so the body (or the next pipelined request)
// remains available for later reads.
//
// The read deadline starts the loop at KeepAliveTimeout (no request has
// begun yet). spec.md §4.3 requires request_timeout to apply "from the
// moment a first byte of a new request is received", which is not the same
// moment as a complete header block being parsed — a client that trickles
// header bytes in slowly must be judged against request_timeout, not the
// shorter idle timer, from its very first byte. So the deadline is swapped
// to RequestTimeout as soon as the first non-empty Peek comes back.
func (c *Connection) readRequestHeaders() (wire.ParseResult, *bytebufferpool.ByteBuffer, error) {
	limits := c.cfg.Limits
	maxSize := limits.MaxHeaderSize
	if maxSize <= 0 {
		maxSize = wire.DefaultMaxHeaderSize
	}

	requestStarted := false
	parsed := -1
	for {
		// Peek only what is already buffered; once those bytes have been
		// parsed (or nothing is buffered yet), ask for one byte more, which
		// blocks only until the next socket read returns data.
		n := c.reader.Buffered()
		if n <= parsed || n == 0 {
			n++
		}
		if n > maxSize {
			n = maxSize
		}
		peek, err := c.reader.Peek(n)
		if !requestStarted && len(peek) > 0 {
			requestStarted = true
			c.rawConn.SetReadDeadline(time.Now().Add(c.cfg.RequestTimeout))
		}
		res := wire.Parse(peek, limits)
		parsed = len(peek)

		switch res.State {
		case wire.Complete:
			owned := bytebufferpool.Get()
			owned.B = append(owned.B, peek[:res.BodyStart]...)
			if _, derr := c.reader.Discard(res.BodyStart); derr != nil {
				bytebufferpool.Put(owned)
				return wire.ParseResult{}, nil, derr
			}
			return res, owned, nil
		case wire.Error:
			return res, nil, nil
		}

		// Incomplete.
		if len(peek) >= maxSize {
			return wire.ParseResult{State: wire.Error, Err: wire.ErrHeadersTooLarge}, nil, nil
		}
		if err != nil {
			if len(peek) == 0 {
				return wire.ParseResult{}, nil, err
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				return wire.ParseResult{State: wire.Error, Err: wire.ErrHeadersTooLarge}, nil, nil
			}
			return wire.ParseResult{}, nil, err
		}
	}
}

// readFixedBody reads exactly n bytes of a Content-Length-framed body
// directly off the shared bufio.Reader into a pooled buffer.
func (c *Connection) readFixedBody(n int64) ([]byte, *bytebufferpool.ByteBuffer, error) {
	buf := bytebufferpool.Get()
	buf.B = growTo(buf.B, int(n))
	if _, err := io.ReadFull(c.reader, buf.B); err != nil {
		bytebufferpool.Put(buf)
		return nil, nil, err
	}
	return buf.B, buf, nil
}

// readChunkedBody decodes an RFC 7230 §4.1 chunked body straight off the
// connection's bufio.Reader. wire.NewChunkedReaderWithLimits reuses the
// *bufio.Reader directly (no extra wrapping), so unread bytes belonging to a
// pipelined next request are never lost.
func (c *Connection) readChunkedBody() ([]byte, error) {
	maxBody := uint64(c.cfg.MaxBodySize)
	cr := wire.NewChunkedReaderWithLimits(c.reader, wire.DefaultMaxChunkSize, maxBody)
	return io.ReadAll(cr)
}

func (c *Connection) writeFinal(status int, _ []byte) {
	resp := core.NewResponse(status)
	resp.SetHeader("Connection", "close")
	respond.Write(c.rawConn, resp, false)
}

func (c *Connection) socketInfo() core.SocketInfo {
	return core.SocketInfo{
		RemoteAddr: c.rawConn.RemoteAddr().String(),
		LocalAddr:  c.rawConn.LocalAddr().String(),
	}
}

// requestClosed reports whether the request itself carries Connection: close.
func requestClosed(headers wire.HeaderView) bool {
	v := headers.Get(headerConnection)
	return v != nil && bytescase.CmpEq(v, valueClose)
}

func joinMethodNames(methods []uint8) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = wire.MethodName(m)
	}
	return strings.Join(names, ", ")
}

func putBuf(buf *bytebufferpool.ByteBuffer) {
	if buf != nil {
		bytebufferpool.Put(buf)
	}
}

func growTo(b []byte, n int) []byte {
	if cap(b) < n {
		b = make([]byte, n)
	}
	return b[:n]
}
