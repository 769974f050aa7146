package conn

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ignishttp/ignis/pkg/ignis/core"
	"github.com/ignishttp/ignis/pkg/ignis/manifest"
	"github.com/ignishttp/ignis/pkg/ignis/wire"
)

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	b := manifest.NewBuilder()
	b.Get("/ping", func(c *core.Context) error { return c.Text(200, "pong") })
	b.Get("/users/:id", func(c *core.Context) error { return c.Text(200, c.Param("id")) })
	b.Post("/echo", func(c *core.Context) error { return c.Text(200, string(c.Body())) })
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func testConfig() Config {
	return Config{
		KeepAliveTimeout:         2 * time.Second,
		RequestTimeout:           2 * time.Second,
		MaxRequestsPerConnection: 100,
		MaxBodySize:              1 << 20,
		Limits:                   wire.Limits{},
	}
}

func serveOnPipe(t *testing.T, m *manifest.Manifest, cfg Config) (*bufio.Reader, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	pool := core.NewContextPool()
	var draining atomic.Bool
	c := New("test-conn", server, cfg, m, pool, &draining)
	go c.Serve()
	return bufio.NewReader(client), client
}

func TestConnection_SimpleGetKeepsAlive(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	client.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\n\r\n"))

	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", line)
	}

	var keepAlive bool
	for {
		h, err := clientReader.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if h == "\r\n" {
			break
		}
		if strings.HasPrefix(h, "Connection: keep-alive") {
			keepAlive = true
		}
	}
	if !keepAlive {
		t.Error("expected Connection: keep-alive on first response")
	}
}

func TestConnection_PipelinedRequestsBothAnswered(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	client.Write([]byte("GET /ping HTTP/1.1\r\n\r\nGET /users/42 HTTP/1.1\r\n\r\n"))

	body1 := readResponseBody(t, clientReader)
	if body1 != "pong" {
		t.Fatalf("first response body = %q, want pong", body1)
	}
	body2 := readResponseBody(t, clientReader)
	if body2 != "42" {
		t.Fatalf("second response body = %q, want 42 (pipelined bytes lost?)", body2)
	}
}

func TestConnection_RequestTimeoutAppliesFromFirstByteNotKeepAlive(t *testing.T) {
	cfg := testConfig()
	cfg.KeepAliveTimeout = 200 * time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	clientReader, client := serveOnPipe(t, testManifest(t), cfg)
	defer client.Close()

	// The first byte arrives promptly, then the rest trickles in well past
	// KeepAliveTimeout but still under RequestTimeout. A connection that
	// mistakenly keeps the idle deadline armed through the whole header read
	// would drop this as idle; request_timeout must take over instead.
	client.Write([]byte("G"))
	time.Sleep(400 * time.Millisecond)
	client.Write([]byte("ET /ping HTTP/1.1\r\n\r\n"))

	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v (dropped as idle instead of honoring request_timeout?)", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 200") {
		t.Fatalf("status line = %q, want 200", line)
	}
}

func TestConnection_SmugglingRejected(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	req := "POST /echo HTTP/1.1\r\nContent-Length: 4\r\nTransfer-Encoding: chunked\r\n\r\nabcd"
	client.Write([]byte(req))

	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 400") {
		t.Fatalf("status line = %q, want 400", line)
	}
}

func TestConnection_ThirdDisagreeingContentLengthRejected(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	// The first two Content-Length headers agree; a third disagrees. A
	// naive check comparing only the first two occurrences would miss this.
	req := "POST /echo HTTP/1.1\r\nContent-Length: 4\r\nContent-Length: 4\r\nContent-Length: 9\r\n\r\nabcd"
	client.Write([]byte(req))

	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 400") {
		t.Fatalf("status line = %q, want 400", line)
	}
}

func TestConnection_UnknownPathIs404(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	client.Write([]byte("GET /nope HTTP/1.1\r\n\r\n"))
	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 404") {
		t.Fatalf("status line = %q, want 404", line)
	}
}

func TestConnection_WrongMethodIs405WithAllow(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	client.Write([]byte("DELETE /ping HTTP/1.1\r\n\r\n"))
	line, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 405") {
		t.Fatalf("status line = %q, want 405", line)
	}

	var sawAllow bool
	for {
		h, err := clientReader.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if h == "\r\n" {
			break
		}
		if strings.HasPrefix(h, "Allow:") && strings.Contains(h, "GET") {
			sawAllow = true
		}
	}
	if !sawAllow {
		t.Error("expected Allow header naming GET")
	}
}

func TestConnection_ChunkedRequestBodyDecoded(t *testing.T) {
	clientReader, client := serveOnPipe(t, testManifest(t), testConfig())
	defer client.Close()

	req := "POST /echo HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n0\r\n\r\n"
	client.Write([]byte(req))

	body := readResponseBody(t, clientReader)
	if body != "Wiki" {
		t.Fatalf("body = %q, want Wiki", body)
	}
}

func TestConnection_MaxRequestsPerConnectionClosesAfterLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestsPerConnection = 1
	clientReader, client := serveOnPipe(t, testManifest(t), cfg)
	defer client.Close()

	client.Write([]byte("GET /ping HTTP/1.1\r\n\r\n"))
	var sawClose bool
	var length int
	line, _ := clientReader.ReadString('\n')
	if !strings.HasPrefix(line, "HTTP/1.1 200") {
		t.Fatalf("status line = %q", line)
	}
	for {
		h, err := clientReader.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if h == "\r\n" {
			break
		}
		if strings.HasPrefix(h, "Connection: close") {
			sawClose = true
		}
		if strings.HasPrefix(h, "Content-Length:") {
			length, _ = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(h, "Content-Length:")))
		}
	}
	if _, err := io.ReadFull(clientReader, make([]byte, length)); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !sawClose {
		t.Error("expected Connection: close once MaxRequestsPerConnection is reached")
	}
}

// readResponseBody reads one full HTTP/1.1 response off r assuming a
// Content-Length-framed body, returning just the body text.
func readResponseBody(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 200") {
		t.Fatalf("status line = %q, want 200", line)
	}
	var length int
	for {
		h, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if h == "\r\n" {
			break
		}
		if strings.HasPrefix(h, "Content-Length:") {
			length, _ = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(h, "Content-Length:")))
		}
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(buf)
}
