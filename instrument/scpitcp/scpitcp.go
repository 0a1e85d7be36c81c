// Package scpitcp talks SCPI to an instrument over a raw TCP socket, the
// LXI "SCPI-RAW" transport on port 5025.
package scpitcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-audiotest/instrument"
)

// DefaultPort is the IANA port for raw SCPI.
const DefaultPort = 5025

// Client is a newline-terminated SCPI connection. Commands are serialized.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-operation timeout used when the context has no
// deadline. Default 5 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Dial connects to addr. A missing port defaults to [DefaultPort].
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{timeout: 5 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("scpitcp: dial %s: %w", addr, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return c, nil
}

// Send writes cmd followed by a newline.
func (c *Client) Send(ctx context.Context, cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, cmd)
}

// Query writes cmd and reads one response line.
func (c *Client) Query(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(ctx, cmd); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("scpitcp: read response to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Client) write(ctx context.Context, cmd string) error {
	if c.conn == nil {
		return instrument.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("scpitcp: set deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("scpitcp: send %q: %w", cmd, err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

var _ instrument.Generator = (*Client)(nil)
