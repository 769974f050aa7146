package socket

import (
	"net"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.NoDelay {
		t.Error("NoDelay should be true by default")
	}
	if cfg.RecvBuffer != 256*1024 {
		t.Errorf("RecvBuffer = %d, want %d", cfg.RecvBuffer, 256*1024)
	}
	if cfg.SendBuffer != 256*1024 {
		t.Errorf("SendBuffer = %d, want %d", cfg.SendBuffer, 256*1024)
	}
	if !cfg.KeepAlive {
		t.Error("KeepAlive should be true by default")
	}
}

func TestApply(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	acceptDone := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			acceptDone <- conn
		}
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	serverConn := <-acceptDone
	defer serverConn.Close()

	if err := Apply(serverConn, DefaultConfig()); err != nil {
		t.Errorf("Apply: %v", err)
	}

	msg := "hello"
	go conn.Write([]byte(msg))
	buf := make([]byte, len(msg))
	n, err := serverConn.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != msg {
		t.Errorf("got %q, want %q", buf[:n], msg)
	}
}

func TestApplyListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	if err := ApplyListener(listener, DefaultConfig()); err != nil {
		t.Logf("ApplyListener returned error (platform-dependent): %v", err)
	}

	connectDone := make(chan struct{})
	go func() {
		conn, err := net.Dial("tcp", listener.Addr().String())
		if err == nil {
			conn.Close()
		}
		close(connectDone)
	}()

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	conn.Close()
	<-connectDone
}

func TestApply_NonTCPConnIsNoop(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	if err := Apply(server, DefaultConfig()); err != nil {
		t.Errorf("Apply on net.Pipe conn should be a no-op, got error: %v", err)
	}
}
