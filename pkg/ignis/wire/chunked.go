package wire

import (
	"bufio"
	"bytes"
	"io"
)

// ChunkedReader decodes an RFC 7230 §4.1 chunked-transfer-encoding body as a
// plain io.Reader, stripping chunk-size lines, chunk-extensions, and the
// trailing CRLFs as it goes.
//
// Ground: shockwave/http11/chunked.go's ChunkedReader, with chunk-size
// parsing delegated to ParseChunkSize (size.go) instead of an inline hex
// loop, and maxChunkSize enforced through the same DoS-guard default.
type ChunkedReader struct {
	r              *bufio.Reader
	remaining      uint64
	totalRead      uint64
	maxChunkSize   uint64
	maxBodySize    uint64
	err            error
	eof            bool
}

// NewChunkedReader wraps r (buffering it if it isn't already a *bufio.Reader)
// with default chunk/body size limits.
func NewChunkedReader(r io.Reader) *ChunkedReader {
	return NewChunkedReaderWithLimits(r, DefaultMaxChunkSize, 0)
}

// NewChunkedReaderWithLimits wraps r with explicit maxChunkSize (0 = use
// DefaultMaxChunkSize) and maxBodySize (0 = unlimited) guards.
func NewChunkedReaderWithLimits(r io.Reader, maxChunkSize, maxBodySize uint64) *ChunkedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	if maxChunkSize == 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &ChunkedReader{r: br, maxChunkSize: maxChunkSize, maxBodySize: maxBodySize}
}

// Read implements io.Reader, returning io.EOF once the terminating
// zero-length chunk and its trailer section have been consumed.
func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}
	if cr.eof {
		return 0, io.EOF
	}

	if cr.remaining == 0 {
		if err := cr.readChunkHeader(); err != nil {
			cr.err = err
			return 0, err
		}
		if cr.remaining == 0 {
			if err := cr.readTrailerAndFinalCRLF(); err != nil {
				cr.err = err
				return 0, err
			}
			cr.eof = true
			return 0, io.EOF
		}
	}

	toRead := uint64(len(p))
	if toRead > cr.remaining {
		toRead = cr.remaining
	}
	n, err := cr.r.Read(p[:toRead])
	cr.remaining -= uint64(n)
	cr.totalRead += uint64(n)

	if cr.maxBodySize > 0 && cr.totalRead > cr.maxBodySize {
		cr.err = ErrChunkedEncoding
		return n, cr.err
	}

	if err != nil {
		if err == io.EOF {
			err = ErrChunkedEncoding
		}
		cr.err = err
		return n, err
	}

	if cr.remaining == 0 {
		if err := cr.readCRLF(); err != nil {
			cr.err = err
			return n, err
		}
	}
	return n, nil
}

func (cr *ChunkedReader) readChunkHeader() error {
	line, err := cr.r.ReadSlice('\n')
	if err != nil {
		return ErrChunkedEncoding
	}
	if len(line) < 2 || line[len(line)-1] != '\n' || line[len(line)-2] != '\r' {
		return ErrChunkedEncoding
	}
	line = line[:len(line)-2]

	// Chunk extensions (everything from the first ';') are ignored rather
	// than parsed — per RFC 7230 §4.1.1 they're optional and a common
	// smuggling vector if mishandled.
	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = bytes.TrimSpace(line)

	size, err := ParseChunkSize(line, cr.maxChunkSize)
	if err != nil {
		return err
	}
	cr.remaining = size
	return nil
}

func (cr *ChunkedReader) readCRLF() error {
	var b [2]byte
	if _, err := io.ReadFull(cr.r, b[:]); err != nil {
		return ErrChunkedEncoding
	}
	if b[0] != '\r' || b[1] != '\n' {
		return ErrChunkedEncoding
	}
	return nil
}

// readTrailerAndFinalCRLF consumes trailer field-lines (discarded — not
// surfaced, per spec.md §1's "chunked trailers" Non-goal) up to and
// including the terminating blank line.
func (cr *ChunkedReader) readTrailerAndFinalCRLF() error {
	for {
		line, err := cr.r.ReadSlice('\n')
		if err != nil {
			return ErrChunkedEncoding
		}
		if len(line) == 2 && line[0] == '\r' && line[1] == '\n' {
			return nil
		}
	}
}

// TotalRead returns the number of decoded body bytes read so far, excluding
// chunk framing.
func (cr *ChunkedReader) TotalRead() uint64 { return cr.totalRead }
