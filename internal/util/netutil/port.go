// Package netutil provides network reachability helpers.
package netutil

import (
	"context"
	"fmt"
	"net"
	"time"
)

const dialTimeout = 2 * time.Second

// WaitForPort waits for a TCP port to be open on the target host.
// It retries every second until the port accepts a connection or the
// timeout is reached.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Check immediately before waiting for the ticker.
	if conn, err := net.DialTimeout("tcp", address, dialTimeout); err == nil {
		_ = conn.Close()
		return nil
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("timeout waiting for %s", address)
			}
			return ctx.Err()
		case <-ticker.C:
			conn, err := net.DialTimeout("tcp", address, dialTimeout)
			if err == nil {
				_ = conn.Close()
				return nil
			}
		}
	}
}

// PortOpen reports whether a TCP connection to host:port succeeds within
// the dial timeout. Used by health checks.
func PortOpen(host string, port int) bool {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
