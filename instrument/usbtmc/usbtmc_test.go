package usbtmc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-audiotest/instrument"
)

// fakeNode answers every read with reply and records writes.
type fakeNode struct {
	written bytes.Buffer
	reply   string
	closed  bool
}

func (f *fakeNode) Write(p []byte) (int, error) { return f.written.Write(p) }

func (f *fakeNode) Read(p []byte) (int, error) { return copy(p, f.reply), nil }

func (f *fakeNode) Close() error {
	f.closed = true
	return nil
}

func TestSendAndQuery(t *testing.T) {
	ctx := context.Background()
	node := &fakeNode{reply: "ACME,GEN1,42,1.0\n"}
	d := New(node, "fake")

	require.NoError(t, d.Send(ctx, instrument.SetOutput(1, instrument.On)))
	id, err := instrument.Identify(ctx, d)
	require.NoError(t, err)
	require.Equal(t, "ACME", id.Manufacturer)
	require.Equal(t, ":OUTPut1 ON\n*IDN?\n", node.written.String())

	require.NoError(t, d.Close())
	require.True(t, node.closed)
	require.ErrorIs(t, d.Send(ctx, instrument.Reset()), instrument.ErrClosed)
}

func TestDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"usbtmc1", "usbtmc0", "ttyS0"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	paths, err := Devices(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "usbtmc0"), filepath.Join(dir, "usbtmc1")}, paths)

	d, err := OpenFirst(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "usbtmc0"), d.Name())
	require.NoError(t, d.Close())

	_, err = OpenFirst(t.TempDir())
	require.Error(t, err)
}
