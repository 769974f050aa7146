package core

import "github.com/intuitivelabs/bytescase"

// BodyKind tags Response.Body's active variant, per spec.md §9's "tagged
// variant Body = Absent | Bytes(slice) | Stream(producer)" design note.
type BodyKind uint8

const (
	BodyAbsent BodyKind = iota
	BodyBytes
	BodyStream
)

// StreamFunc is a lazy byte-chunk producer: each call returns the next chunk
// and ok=false once the stream is exhausted. The serializer calls it
// repeatedly, framing each chunk per spec.md §4.4.
type StreamFunc func() (chunk []byte, ok bool, err error)

// HeaderField is one ordered response header. Duplicates are legal (e.g.
// Set-Cookie), per spec.md §4.4.
type HeaderField struct {
	Name  string
	Value string
}

// Response is the record a Handler produces: status, ordered headers, and a
// tagged body. Ground: bolt/core/context.go's JSON/Text/NoContent response
// paths, restructured from "write directly to the wire adapter" into a
// standalone value the connection's serializer consumes (spec.md §4.4).
type Response struct {
	Status  int
	Headers []HeaderField

	BodyKind  BodyKind
	Bytes     []byte
	Stream    StreamFunc
}

// NewResponse starts a Response with the given status and no body.
func NewResponse(status int) *Response {
	return &Response{Status: status, BodyKind: BodyAbsent}
}

// SetHeader appends a header. Does not deduplicate — callers that want
// replace-semantics should filter first; the serializer preserves insertion
// order and allows repeats (spec.md §4.4).
func (r *Response) SetHeader(name, value string) *Response {
	r.Headers = append(r.Headers, HeaderField{Name: name, Value: value})
	return r
}

// Header returns the first value set for name, matched case-insensitively
// (spec.md §3: Response headers are an "ordered key→value mapping with
// case-insensitive keys") using the same bytescase comparison wire.HeaderView
// uses for request headers, or "" if absent.
func (r *Response) Header(name string) string {
	want := []byte(name)
	for _, h := range r.Headers {
		if bytescase.CmpEq([]byte(h.Name), want) {
			return h.Value
		}
	}
	return ""
}

// SetBytes sets a finite buffered body.
func (r *Response) SetBytes(body []byte) *Response {
	r.BodyKind = BodyBytes
	r.Bytes = body
	r.Stream = nil
	return r
}

// SetStream sets a lazy byte-chunk producer body, serialized with
// Transfer-Encoding: chunked (spec.md §4.4).
func (r *Response) SetStream(fn StreamFunc) *Response {
	r.BodyKind = BodyStream
	r.Stream = fn
	r.Bytes = nil
	return r
}

// SocketInfo carries remote/local address hints into the handler, per
// spec.md §6's Context.socket_info.
type SocketInfo struct {
	RemoteAddr string
	LocalAddr  string
}
