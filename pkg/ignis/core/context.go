package core

import (
	json "github.com/goccy/go-json"

	"github.com/ignishttp/ignis/pkg/ignis/router"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

// Context is the borrowed view a Handler receives: method, path, query,
// headers, and body are slices into the connection's read buffer and are
// valid only for the duration of the handler call (spec.md §9's zero-copy
// slices note). Handlers that need to retain any of these must copy.
//
// Ground: bolt/core/context.go's Context, trimmed to the fields spec.md §6
// names and re-pointed at wire.HeaderView / router.RouteMatch instead of
// bolt's net/http + Shockwave adapter fields. Pooled the same way, via Reset.
type Context struct {
	methodCode uint8
	pathBytes  []byte
	queryBytes []byte
	headers    wire.HeaderView
	params     [8]router.Param
	paramsLen  int
	body       []byte
	socket     SocketInfo

	response Response
}

// Reset clears a Context for reuse from a sync.Pool, mirroring bolt's
// Context.Reset/FastReset split — ignis only needs one reset path since it
// carries no per-request allocation-heavy caches beyond the fixed param
// array.
func (c *Context) Reset() {
	*c = Context{}
}

// Prepare populates a pooled Context with one request's borrowed views. The
// connection state machine calls this once per dispatch.
func (c *Context) Prepare(methodCode uint8, path, query []byte, headers wire.HeaderView, match router.RouteMatch, body []byte, socket SocketInfo) {
	c.methodCode = methodCode
	c.pathBytes = path
	c.queryBytes = query
	c.headers = headers
	c.params = match.Params
	c.paramsLen = match.ParamsLen
	c.body = body
	c.socket = socket
	c.response = Response{Status: 200}
}

// Method returns the request method as its canonical uppercase string.
func (c *Context) Method() string { return wire.MethodName(c.methodCode) }

// MethodCode returns the dense method code spec.md §3 defines.
func (c *Context) MethodCode() uint8 { return c.methodCode }

// Path returns the request path, excluding any query string.
func (c *Context) Path() string { return string(c.pathBytes) }

// PathBytes returns the request path without allocating a string.
func (c *Context) PathBytes() []byte { return c.pathBytes }

// Query returns the raw, unparsed query string (the part after '?').
func (c *Context) Query() string { return string(c.queryBytes) }

// Header returns a request header value by case-insensitive name.
func (c *Context) Header(name string) string { return c.headers.GetString(name) }

// Headers exposes the full case-insensitive header view.
func (c *Context) Headers() wire.HeaderView { return c.headers }

// Param returns a captured route parameter by name, or "" if absent.
func (c *Context) Param(name string) string {
	for i := 0; i < c.paramsLen; i++ {
		if string(c.params[i].Name) == name {
			return string(c.params[i].Value)
		}
	}
	return ""
}

// ParamBytes is the zero-copy counterpart of Param.
func (c *Context) ParamBytes(name string) []byte {
	for i := 0; i < c.paramsLen; i++ {
		if string(c.params[i].Name) == name {
			return c.params[i].Value
		}
	}
	return nil
}

// Body returns the request body, buffered in RAM up to the upstream-enforced
// limit (spec.md §6).
func (c *Context) Body() []byte { return c.body }

// SocketInfo returns remote/local address hints for the underlying socket.
func (c *Context) SocketInfo() SocketInfo { return c.socket }

// Response returns the in-progress response for the connection layer to
// serialize once the handler returns.
func (c *Context) Response() *Response { return &c.response }

// JSON marshals data with goccy/go-json (the teacher's JSON codec throughout
// bolt/core/context.go) and sets the response to status with a
// Content-Type: application/json body.
func (c *Context) JSON(status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.response.Status = status
	c.response.SetHeader("Content-Type", "application/json")
	c.response.SetBytes(body)
	return nil
}

// Text sets a text/plain response body.
func (c *Context) Text(status int, text string) error {
	c.response.Status = status
	c.response.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.response.SetBytes([]byte(text))
	return nil
}

// HTML sets a text/html response body.
func (c *Context) HTML(status int, html string) error {
	c.response.Status = status
	c.response.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.response.SetBytes([]byte(html))
	return nil
}

// NoContent sets a 204-style absent-body response at the given status.
func (c *Context) NoContent(status int) error {
	c.response.Status = status
	c.response.BodyKind = BodyAbsent
	c.response.Bytes = nil
	c.response.Stream = nil
	return nil
}

// Stream sets a chunked, lazily-produced response body.
func (c *Context) Stream(status int, fn StreamFunc) error {
	c.response.Status = status
	c.response.SetStream(fn)
	return nil
}

// SetHeader sets a response header, same ordering contract as Response.SetHeader.
func (c *Context) SetHeader(name, value string) {
	c.response.SetHeader(name, value)
}

// BindJSON unmarshals the request body into v using goccy/go-json.
func (c *Context) BindJSON(v interface{}) error {
	return json.Unmarshal(c.body, v)
}
