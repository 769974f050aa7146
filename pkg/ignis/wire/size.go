package wire

// ParseContentLength parses a decimal, non-negative Content-Length value
// with no allocation. An empty slice, a sign, leading/trailing junk, or an
// overflow all yield an error, matching spec.md §4.1's framing rule
// ("decimal non-negative integer; ... invalid means error").
func ParseContentLength(v []byte) (int64, error) {
	if len(v) == 0 {
		return 0, ErrInvalidContentLength
	}
	var n int64
	for _, b := range v {
		if b < '0' || b > '9' {
			return 0, ErrInvalidContentLength
		}
		d := int64(b - '0')
		if n > (1<<63-1-d)/10 {
			return 0, ErrInvalidContentLength
		}
		n = n*10 + d
	}
	return n, nil
}

// ParseChunkSize parses a chunk-size hex line per RFC 7230 §4.1, ignoring
// any chunk-extension the caller has already stripped. Ground: shockwave's
// ChunkedReader.readChunkHeader hex accumulation loop.
func ParseChunkSize(hex []byte, max uint64) (uint64, error) {
	if len(hex) == 0 {
		return 0, ErrChunkedEncoding
	}
	var n uint64
	for _, b := range hex {
		n <<= 4
		switch {
		case b >= '0' && b <= '9':
			n |= uint64(b - '0')
		case b >= 'a' && b <= 'f':
			n |= uint64(b-'a') + 10
		case b >= 'A' && b <= 'F':
			n |= uint64(b-'A') + 10
		default:
			return 0, ErrChunkedEncoding
		}
		if max > 0 && n > max {
			return 0, ErrChunkedEncoding
		}
	}
	return n, nil
}
