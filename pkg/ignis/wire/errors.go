package wire

import "errors"

// Parse errors. Grouped the way the teacher's http11/errors.go groups parser
// errors into a single var block of pre-allocated sentinels.
var (
	// ErrInvalidMethod indicates the request line's method token is not one
	// of the nine recognized methods.
	ErrInvalidMethod = errors.New("wire: invalid or unrecognized HTTP method")

	// ErrInvalidRequestLine indicates the request line could not be split
	// into method/target/version the way RFC 7230 §3.1.1 requires.
	ErrInvalidRequestLine = errors.New("wire: malformed request line")

	// ErrInvalidVersion indicates the protocol token was neither HTTP/1.1
	// nor HTTP/1.0.
	ErrInvalidVersion = errors.New("wire: unsupported or malformed HTTP version")

	// ErrInvalidHeaderName indicates a header name contained a byte outside
	// the RFC 7230 token character set.
	ErrInvalidHeaderName = errors.New("wire: invalid header name")

	// ErrObsFold indicates a header value continuation line (obs-fold),
	// which spec.md §1 lists as explicitly rejected.
	ErrObsFold = errors.New("wire: obs-fold header continuation is rejected")

	// ErrHeaderLineMalformed indicates a header line had no ':' separator.
	ErrHeaderLineMalformed = errors.New("wire: header line missing ':'")

	// ErrTooManyHeaders indicates the header count exceeds Limits.MaxHeaderCount.
	ErrTooManyHeaders = errors.New("wire: too many headers")

	// ErrHeadersTooLarge indicates the request line + headers exceeded
	// Limits.MaxHeaderSize before the terminating blank line was found.
	ErrHeadersTooLarge = errors.New("wire: headers too large")

	// ErrInvalidContentLength indicates a Content-Length value that is not
	// a valid non-negative decimal integer.
	ErrInvalidContentLength = errors.New("wire: invalid Content-Length")

	// ErrDuplicateContentLength indicates two Content-Length headers with
	// differing values, an HTTP request-smuggling vector per RFC 7230 §3.3.3.
	ErrDuplicateContentLength = errors.New("wire: duplicate Content-Length headers disagree")

	// ErrSmuggling indicates both Content-Length and Transfer-Encoding were
	// present; spec.md §9 Open Question resolves this as reject-as-malformed
	// per RFC 7230 §3.3.3 rule 3.
	ErrSmuggling = errors.New("wire: Content-Length and Transfer-Encoding both present")

	// ErrChunkedEncoding indicates malformed chunk framing.
	ErrChunkedEncoding = errors.New("wire: malformed chunked transfer encoding")
)
