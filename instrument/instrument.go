package instrument

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors shared by instrument implementations.
var (
	ErrAcquisition = errors.New("instrument: acquisition failed")
	ErrClosed      = errors.New("instrument: connection closed")
	ErrCommand     = errors.New("instrument: invalid command")
)

// Acquirer captures n samples at sampleRate from every channel in channels.
// The returned slices are ordered like channels and have length n.
type Acquirer interface {
	Acquire(ctx context.Context, channels []string, sampleRate float64, n int) ([][]float64, error)
}

// Generator is a SCPI-controlled signal generator.
type Generator interface {
	Send(ctx context.Context, cmd string) error
	Query(ctx context.Context, cmd string) (string, error)
}

// IsQuery reports whether cmd expects a response.
func IsQuery(cmd string) bool {
	return strings.Contains(cmd, "?")
}

// Exec sends cmds in order. Queries are answered through Query and their
// responses returned in order; other commands go through Send.
func Exec(ctx context.Context, g Generator, cmds ...string) ([]string, error) {
	var responses []string
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return responses, err
		}
		if IsQuery(cmd) {
			resp, err := g.Query(ctx, cmd)
			if err != nil {
				return responses, fmt.Errorf("instrument: %s: %w", cmd, err)
			}
			responses = append(responses, resp)
			continue
		}
		if err := g.Send(ctx, cmd); err != nil {
			return responses, fmt.Errorf("instrument: %s: %w", cmd, err)
		}
	}
	return responses, nil
}

// Identity is the parsed answer to *IDN?.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

func (id Identity) String() string {
	return strings.Join([]string{id.Manufacturer, id.Model, id.Serial, id.Firmware}, ",")
}

// ParseIdentity splits an *IDN? response into its four fields. Missing
// trailing fields are left empty.
func ParseIdentity(resp string) (Identity, error) {
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return Identity{}, fmt.Errorf("%w: empty identification", ErrCommand)
	}
	fields := strings.SplitN(resp, ",", 4)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	fields = append(fields, make([]string, 4-len(fields))...)
	return Identity{
		Manufacturer: fields[0],
		Model:        fields[1],
		Serial:       fields[2],
		Firmware:     fields[3],
	}, nil
}

// Identify queries and parses the generator identification.
func Identify(ctx context.Context, g Generator) (Identity, error) {
	resp, err := g.Query(ctx, IdentifyQuery())
	if err != nil {
		return Identity{}, fmt.Errorf("instrument: identify: %w", err)
	}
	return ParseIdentity(resp)
}

// Settle waits d for the device to reach steady state, or until ctx is
// done.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
