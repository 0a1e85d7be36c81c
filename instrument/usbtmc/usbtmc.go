// Package usbtmc talks SCPI to a USB test-and-measurement class device
// through the Linux usbtmc character driver (/dev/usbtmcN).
//
// The kernel driver frames every write as one bulk-out message and every
// read as one bulk-in transfer, so a query is a write followed by a single
// read.
package usbtmc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-audiotest/instrument"
)

// DefaultDir is where the kernel creates usbtmc device nodes.
const DefaultDir = "/dev"

const readSize = 4096

// Device is an open usbtmc node. Commands are serialized.
type Device struct {
	mu   sync.Mutex
	rw   io.ReadWriteCloser
	name string
	buf  []byte
}

// Devices lists the usbtmc nodes under dir in name order.
func Devices(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	paths, err := filepath.Glob(filepath.Join(dir, "usbtmc*"))
	if err != nil {
		return nil, fmt.Errorf("usbtmc: list %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Open opens the device node at path.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("usbtmc: open: %w", err)
	}
	return New(f, path), nil
}

// OpenFirst opens the first device listed by [Devices].
func OpenFirst(dir string) (*Device, error) {
	paths, err := Devices(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("usbtmc: no devices found in %s", dir)
	}
	return Open(paths[0])
}

// New wraps an already open stream.
func New(rw io.ReadWriteCloser, name string) *Device {
	return &Device{rw: rw, name: name, buf: make([]byte, readSize)}
}

// Name returns the device path or the name given to [New].
func (d *Device) Name() string { return d.name }

// Send writes one command message.
func (d *Device) Send(ctx context.Context, cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(ctx, cmd)
}

// Query writes cmd and reads one response message.
func (d *Device) Query(ctx context.Context, cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(ctx, cmd); err != nil {
		return "", err
	}
	n, err := d.rw.Read(d.buf)
	if err != nil && !(err == io.EOF && n > 0) {
		return "", fmt.Errorf("usbtmc: %s: read response to %q: %w", d.name, cmd, err)
	}
	return strings.TrimRight(string(d.buf[:n]), "\r\n"), nil
}

func (d *Device) write(ctx context.Context, cmd string) error {
	if d.rw == nil {
		return instrument.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(d.rw, cmd+"\n"); err != nil {
		return fmt.Errorf("usbtmc: %s: send %q: %w", d.name, cmd, err)
	}
	return nil
}

// Close closes the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rw == nil {
		return nil
	}
	err := d.rw.Close()
	d.rw = nil
	return err
}

var _ instrument.Generator = (*Device)(nil)
