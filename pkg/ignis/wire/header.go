package wire

import (
	"bytes"

	"github.com/intuitivelabs/bytescase"
)

// HeaderView is a read-only, case-insensitive view over the headers Parse
// found in a request buffer. It holds no copies — Get returns slices into
// the same buffer that was passed to Parse, valid only for as long as that
// buffer is valid (spec.md §3 lifecycle note).
//
// Ground: shockwave/http11/header.go's Header type provides the same
// Get/Has/VisitAll surface but compares names with a hand-rolled
// bytesEqualCaseInsensitive/toLower loop. intuitivelabs-httpsp ships a
// dedicated case-insensitive byte-compare library for exactly this job
// (see parse_headers.go's bytescase.CmpEq use); ignis uses that library
// instead of reimplementing case folding.
type HeaderView struct {
	buf     []byte
	offsets []HeaderOffset
}

// NewHeaderView builds a view from a ParseResult's header offsets.
func NewHeaderView(buf []byte, res *ParseResult) HeaderView {
	return HeaderView{buf: buf, offsets: res.HeaderOffsets[:res.HeadersCount]}
}

// Len returns the number of headers in the view.
func (h HeaderView) Len() int { return len(h.offsets) }

// Get returns the first header value matching name (case-insensitive), or
// nil if absent.
func (h HeaderView) Get(name []byte) []byte {
	for _, off := range h.offsets {
		candidate := h.buf[off.NameStart:off.NameEnd]
		if bytescase.CmpEq(candidate, name) {
			return h.buf[off.ValueStart:off.ValueEnd]
		}
	}
	return nil
}

// GetString is a convenience wrapper over Get that allocates a string.
func (h HeaderView) GetString(name string) string {
	v := h.Get([]byte(name))
	if v == nil {
		return ""
	}
	return string(v)
}

// Has reports whether a header with the given name (case-insensitive) is
// present at all, including when its value is empty.
func (h HeaderView) Has(name []byte) bool {
	for _, off := range h.offsets {
		if bytescase.CmpEq(h.buf[off.NameStart:off.NameEnd], name) {
			return true
		}
	}
	return false
}

// VisitAll calls visit for every header in declaration order. Iteration
// stops early if visit returns false.
func (h HeaderView) VisitAll(visit func(name, value []byte) bool) {
	for _, off := range h.offsets {
		if !visit(h.buf[off.NameStart:off.NameEnd], h.buf[off.ValueStart:off.ValueEnd]) {
			return
		}
	}
}

// Matching scans every header matching name (case-insensitive) and reports
// the first matching value, how many matched, and whether all of them agree.
// Used by the Content-Length duplicate-detection guard in conn.Connection,
// which must reject any disagreeing duplicate — not just a disagreement
// between the first two occurrences — per spec.md §7's malformed_request /
// request-smuggling guard.
func (h HeaderView) Matching(name []byte) (first []byte, count int, allEqual bool) {
	allEqual = true
	for _, off := range h.offsets {
		if !bytescase.CmpEq(h.buf[off.NameStart:off.NameEnd], name) {
			continue
		}
		v := h.buf[off.ValueStart:off.ValueEnd]
		if count == 0 {
			first = v
		} else if !bytes.Equal(v, first) {
			allEqual = false
		}
		count++
	}
	return first, count, allEqual
}
