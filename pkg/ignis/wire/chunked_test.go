package wire

import (
	"io"
	"strings"
	"testing"
)

func TestChunkedReader_Simple(t *testing.T) {
	input := "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	expected := "Wikipedia"

	cr := NewChunkedReader(strings.NewReader(input))
	output, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(output) != expected {
		t.Errorf("got %q, want %q", output, expected)
	}
	if cr.TotalRead() != uint64(len(expected)) {
		t.Errorf("TotalRead() = %d, want %d", cr.TotalRead(), len(expected))
	}
}

func TestChunkedReader_WithExtensions(t *testing.T) {
	input := "4;name=value\r\nWiki\r\n5;foo=bar\r\npedia\r\n0\r\n\r\n"
	expected := "Wikipedia"

	cr := NewChunkedReader(strings.NewReader(input))
	output, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(output) != expected {
		t.Errorf("got %q, want %q", output, expected)
	}
}

func TestChunkedReader_EmptyBody(t *testing.T) {
	cr := NewChunkedReader(strings.NewReader("0\r\n\r\n"))
	output, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output) != 0 {
		t.Errorf("got %q, want empty", output)
	}
}

func TestChunkedReader_TrailerConsumed(t *testing.T) {
	input := "4\r\ntest\r\n0\r\nX-Trailer: ignored\r\n\r\n"
	cr := NewChunkedReader(strings.NewReader(input))
	output, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(output) != "test" {
		t.Errorf("got %q, want test", output)
	}
}

func TestChunkedReader_MalformedSize(t *testing.T) {
	cr := NewChunkedReader(strings.NewReader("zz\r\nbad\r\n0\r\n\r\n"))
	_, err := io.ReadAll(cr)
	if err != ErrChunkedEncoding {
		t.Errorf("err = %v, want ErrChunkedEncoding", err)
	}
}

func TestChunkedReader_MissingCRLFAfterData(t *testing.T) {
	cr := NewChunkedReader(strings.NewReader("4\r\nWikiXX0\r\n\r\n"))
	_, err := io.ReadAll(cr)
	if err != ErrChunkedEncoding {
		t.Errorf("err = %v, want ErrChunkedEncoding", err)
	}
}

func TestChunkedReader_ExceedsMaxChunkSize(t *testing.T) {
	cr := NewChunkedReaderWithLimits(strings.NewReader("ffffffff\r\n"), 0xff, 0)
	_, err := io.ReadAll(cr)
	if err != ErrChunkedEncoding {
		t.Errorf("err = %v, want ErrChunkedEncoding", err)
	}
}

func TestChunkedReader_ExceedsMaxBodySize(t *testing.T) {
	input := "5\r\nhello\r\n5\r\nworld\r\n0\r\n\r\n"
	cr := NewChunkedReaderWithLimits(strings.NewReader(input), 0, 6)
	_, err := io.ReadAll(cr)
	if err != ErrChunkedEncoding {
		t.Errorf("err = %v, want ErrChunkedEncoding", err)
	}
}
