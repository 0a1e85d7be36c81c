package instrument

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent    []string
	queries []string
	failOn  string
}

func (r *recorder) Send(_ context.Context, cmd string) error {
	if cmd == r.failOn {
		return errors.New("boom")
	}
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recorder) Query(_ context.Context, cmd string) (string, error) {
	r.queries = append(r.queries, cmd)
	return "RIGOL TECHNOLOGIES,DG1022Z,DG1ZA0000001,00.03.00", nil
}

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Reset(), "*RST"},
		{Clear(), "*CLS"},
		{IdentifyQuery(), "*IDN?"},
		{SetOutput(1, On), ":OUTPut1 ON"},
		{SetOutput(2, Off), ":OUTPut2 OFF"},
		{SetFunctionVoltageAC(), ":FUNCtion:VOLTage:AC"},
		{SetVoltageACBandwidth(BandwidthMin), "VOLTage:AC:BANDwidth MIN"},
		{SetFunctionSine(1), ":SOURce1:FUNCtion SIN"},
		{SetAmplitude(1, 1.2276534), ":SOURce1:VOLTAGE:AMPLitude 1.22765"},
		{SetFrequency(1, 12.589254117941673), ":SOURce1:FREQ 12.58925"},
		{SetFrequency(1, 1000), ":SOURce1:FREQ 1000"},
		{SetPhase(1, -90), ":SOURce1:PHASe -90"},
		{SetOutputImpedance(1, 50), ":OUTPut1:IMPedance 50"},
		{SetOutput(-3, On), ":OUTPut0 ON"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, tc.got)
	}
}

func TestSetupSequenceLeavesOutputOff(t *testing.T) {
	seq := SetupSequence(2, 10)
	require.Equal(t, Reset(), seq[0])
	require.Contains(t, seq, SetOutput(1, Off))
	require.NotContains(t, seq, SetOutput(1, On))
	require.Contains(t, seq, ":OUTPut1:IMPedance 50")
	require.Contains(t, seq, ":SOURce1:PHASe 0")
	require.Equal(t, SetFrequency(1, 10), seq[len(seq)-1])
	require.Equal(t, []string{":OUTPut1 OFF", "*CLS"}, ShutdownSequence())
}

func TestExecRoutesQueries(t *testing.T) {
	r := &recorder{}
	resp, err := Exec(context.Background(), r, Reset(), IdentifyQuery(), SetOutput(1, On))
	require.NoError(t, err)
	require.Equal(t, []string{"*RST", ":OUTPut1 ON"}, r.sent)
	require.Equal(t, []string{"*IDN?"}, r.queries)
	require.Len(t, resp, 1)
}

func TestExecStopsOnError(t *testing.T) {
	r := &recorder{failOn: Clear()}
	_, err := Exec(context.Background(), r, Reset(), Clear(), SetOutput(1, On))
	require.Error(t, err)
	require.Equal(t, []string{"*RST"}, r.sent)
}

func TestExecHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{}
	_, err := Exec(ctx, r, Reset())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, r.sent)
}

func TestIdentify(t *testing.T) {
	id, err := Identify(context.Background(), &recorder{})
	require.NoError(t, err)
	require.Equal(t, Identity{
		Manufacturer: "RIGOL TECHNOLOGIES",
		Model:        "DG1022Z",
		Serial:       "DG1ZA0000001",
		Firmware:     "00.03.00",
	}, id)
	require.Equal(t, "RIGOL TECHNOLOGIES,DG1022Z,DG1ZA0000001,00.03.00", id.String())
}

func TestParseIdentityPartial(t *testing.T) {
	id, err := ParseIdentity("ACME, Gen1\n")
	require.NoError(t, err)
	require.Equal(t, "ACME", id.Manufacturer)
	require.Equal(t, "Gen1", id.Model)
	require.Empty(t, id.Serial)

	_, err = ParseIdentity("  ")
	require.ErrorIs(t, err, ErrCommand)
}

func TestSettle(t *testing.T) {
	require.NoError(t, Settle(context.Background(), 0))
	require.NoError(t, Settle(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Settle(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, Settle(ctx, 0), context.Canceled)
}
