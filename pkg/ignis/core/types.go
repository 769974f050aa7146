// Package core holds the types shared across the engine: the Handler
// contract, the Context a handler receives, the Response it produces, server
// configuration, and the error taxonomy spec.md §7 assigns HTTP statuses to.
//
// Ground: bolt/core/types.go (Handler/Middleware/ErrorHandler/error vars/
// Config/DefaultErrorHandler) and bolt/core/context.go (Context), adapted so
// Context exposes the zero-copy request view spec.md §6 names (method, path,
// query, headers, params, body, socket_info) instead of bolt's net/http
// adapter fields, and Response is a first-class value instead of being
// written eagerly through Context.JSON/Text side effects.
package core

import "errors"

// Handler maps a Context to a response, by mutating the Context's response
// builder and returning an error. Kept close to bolt's `func(*Context) error`
// shape rather than `func(*Context) (Response, error)`: handlers fill in the
// response through helpers such as c.JSON, c.Text and c.Stream, and the
// connection serializes it after the handler returns.
type Handler func(*Context) error

// Middleware wraps a Handler, same contract as bolt/core/types.go.
type Middleware func(Handler) Handler

// ErrorHandler turns a handler's returned error into a final response.
type ErrorHandler func(*Context, error)

// Errors a handler may return; DefaultErrorHandler maps each to the status
// code spec.md §7 assigns it. Handlers may also return any other error, which
// maps to 500.
var (
	ErrBadRequest      = errors.New("core: bad request")
	ErrUnauthorized    = errors.New("core: unauthorized")
	ErrForbidden       = errors.New("core: forbidden")
	ErrNotFound        = errors.New("core: not found")
	ErrMethodNotAllowed = errors.New("core: method not allowed")
	ErrRequestTooLarge = errors.New("core: request entity too large")
	ErrInternal        = errors.New("core: internal server error")
)

// DefaultErrorHandler sends a generic JSON error body with no stack leak,
// per spec.md §7's handler_exception propagation policy.
func DefaultErrorHandler(c *Context, err error) {
	status, message := 500, "Internal Server Error"
	switch {
	case errors.Is(err, ErrBadRequest):
		status, message = 400, "Bad Request"
	case errors.Is(err, ErrUnauthorized):
		status, message = 401, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		status, message = 403, "Forbidden"
	case errors.Is(err, ErrNotFound):
		status, message = 404, "Not Found"
	case errors.Is(err, ErrMethodNotAllowed):
		status, message = 405, "Method Not Allowed"
	case errors.Is(err, ErrRequestTooLarge):
		status, message = 413, "Request Entity Too Large"
	}
	_ = c.JSON(status, map[string]string{"error": message})
}

// TLSConfig names the optional transport-layer material; the core never
// terminates TLS itself (spec.md §1 non-goal), it only carries the config
// through to whatever listener wraps the raw socket.
type TLSConfig struct {
	Cert       string
	Key        string
	CA         string
	Passphrase string
}

// Config enumerates server options, matching spec.md §6 exactly including
// its stated defaults.
type Config struct {
	Port     int
	Hostname string
	TLS      *TLSConfig

	KeepAliveTimeoutMS       int
	MaxRequestsPerConnection int
	RequestTimeoutMS         int
	MaxHeaderSizeBytes       int
	MaxHeadersCount          int

	ErrorHandler ErrorHandler
}

// DefaultConfig returns spec.md §6's enumerated defaults.
func DefaultConfig() Config {
	return Config{
		Port:                     3000,
		Hostname:                 "0.0.0.0",
		KeepAliveTimeoutMS:       5000,
		MaxRequestsPerConnection: 100,
		RequestTimeoutMS:         30000,
		MaxHeaderSizeBytes:       8192,
		MaxHeadersCount:          64,
		ErrorHandler:             DefaultErrorHandler,
	}
}

// EffectivePort resolves the bind port: TLS defaults to 443 unless Port was
// explicitly set away from the zero-TLS default of 3000.
func (c Config) EffectivePort() int {
	if c.TLS != nil && c.Port == 3000 {
		return 443
	}
	return c.Port
}
