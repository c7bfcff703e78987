package netutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestWaitForPort_Open(t *testing.T) {
	t.Parallel()
	host, port := listenLoopback(t)

	err := WaitForPort(context.Background(), host, port, 5*time.Second)
	if err != nil {
		t.Errorf("Expected open port, got error: %v", err)
	}
}

func TestWaitForPort_Timeout(t *testing.T) {
	t.Parallel()
	// Port 1 on loopback is almost certainly closed.
	err := WaitForPort(context.Background(), "127.0.0.1", 1, 1500*time.Millisecond)
	if err == nil {
		t.Error("Expected timeout error for closed port, got nil")
	}
}

func TestWaitForPort_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForPort(ctx, "127.0.0.1", 1, 10*time.Second)
	if err == nil {
		t.Error("Expected error from cancelled context, got nil")
	}
}

func TestPortOpen(t *testing.T) {
	t.Parallel()
	host, port := listenLoopback(t)

	if !PortOpen(host, port) {
		t.Error("Expected PortOpen to report true for listening port")
	}
	if PortOpen("127.0.0.1", 1) {
		t.Error("Expected PortOpen to report false for closed port")
	}
}
