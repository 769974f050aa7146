// Package respond serializes a core.Response onto the wire: status line,
// headers, then body, choosing between Content-Length and chunked
// Transfer-Encoding per spec.md §4.4.
//
// Ground: shockwave/http11/response.go's ResponseWriter (pre-compiled status
// line + ordered header writing), adapted from a buffered io.Writer wrapper
// around a live socket into a pure "serialize this Response" function
// operating on the already-built core.Response value, since ignis builds the
// whole response before writing rather than streaming writes through
// Context.Write calls.
package respond

import (
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

var crlf = []byte("\r\n")

// Write serializes resp to w. keepAlive decides the Connection header when
// the handler hasn't already set one explicitly. Returns the total bytes
// written.
func Write(w io.Writer, resp *core.Response, keepAlive bool) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeStatusLine(buf, resp.Status)

	hasContentLength := resp.Header("Content-Length") != ""
	hasConnection := resp.Header("Connection") != ""

	switch resp.BodyKind {
	case core.BodyBytes:
		if !hasContentLength {
			buf.B = append(buf.B, "Content-Length: "...)
			buf.B = strconv.AppendInt(buf.B, int64(len(resp.Bytes)), 10)
			buf.B = append(buf.B, crlf...)
		}
	case core.BodyStream:
		buf.B = append(buf.B, "Transfer-Encoding: chunked\r\n"...)
	}

	for _, h := range resp.Headers {
		buf.B = append(buf.B, h.Name...)
		buf.B = append(buf.B, ':', ' ')
		buf.B = append(buf.B, h.Value...)
		buf.B = append(buf.B, crlf...)
	}

	if !hasConnection {
		if keepAlive {
			buf.B = append(buf.B, "Connection: keep-alive\r\n"...)
		} else {
			buf.B = append(buf.B, "Connection: close\r\n"...)
		}
	}
	buf.B = append(buf.B, crlf...)

	n, err := w.Write(buf.B)
	total := int64(n)
	if err != nil {
		return total, err
	}

	switch resp.BodyKind {
	case core.BodyBytes:
		if len(resp.Bytes) > 0 {
			n, err := w.Write(resp.Bytes)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	case core.BodyStream:
		n, err := writeChunkedStream(w, resp.Stream)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeChunkedStream drains fn, framing each chunk as "hex-size CRLF bytes
// CRLF" and emitting the terminating "0 CRLF CRLF", per spec.md §4.4.
func writeChunkedStream(w io.Writer, fn core.StreamFunc) (int64, error) {
	var total int64
	frame := bytebufferpool.Get()
	defer bytebufferpool.Put(frame)

	for {
		chunk, ok, err := fn()
		if err != nil {
			return total, err
		}
		if !ok {
			break
		}
		if len(chunk) == 0 {
			continue
		}
		frame.Reset()
		frame.B = strconv.AppendInt(frame.B, int64(len(chunk)), 16)
		frame.B = append(frame.B, crlf...)
		frame.B = append(frame.B, chunk...)
		frame.B = append(frame.B, crlf...)
		n, err := w.Write(frame.B)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err := w.Write(terminatingChunk)
	total += int64(n)
	return total, err
}

var terminatingChunk = []byte("0\r\n\r\n")

func writeStatusLine(buf *bytebufferpool.ByteBuffer, status int) {
	buf.B = append(buf.B, "HTTP/1.1 "...)
	buf.B = strconv.AppendInt(buf.B, int64(status), 10)
	buf.B = append(buf.B, ' ')
	buf.B = append(buf.B, wire.StatusText(status)...)
	buf.B = append(buf.B, crlf...)
}
