package instrument

import (
	"fmt"
	"math"
	"strconv"
)

// Switch is an output state.
type Switch bool

const (
	Off Switch = false
	On  Switch = true
)

func (s Switch) String() string {
	if s {
		return "ON"
	}
	return "OFF"
}

// Bandwidth is a symbolic AC bandwidth setting.
type Bandwidth string

const (
	BandwidthMin     Bandwidth = "MIN"
	BandwidthMax     Bandwidth = "MAX"
	BandwidthDefault Bandwidth = "DEF"
)

// Reset returns *RST.
func Reset() string { return "*RST" }

// Clear returns *CLS.
func Clear() string { return "*CLS" }

// IdentifyQuery returns *IDN?.
func IdentifyQuery() string { return "*IDN?" }

// SetOutput switches output n on or off.
func SetOutput(n int, s Switch) string {
	return fmt.Sprintf(":OUTPut%d %s", channel(n), s)
}

// SetFunctionVoltageAC selects AC voltage measurement.
func SetFunctionVoltageAC() string { return ":FUNCtion:VOLTage:AC" }

// SetVoltageACBandwidth sets the AC voltage bandwidth.
func SetVoltageACBandwidth(b Bandwidth) string {
	return "VOLTage:AC:BANDwidth " + string(b)
}

// SetFunctionSine selects a sine waveform on source n.
func SetFunctionSine(n int) string {
	return fmt.Sprintf(":SOURce%d:FUNCtion SIN", channel(n))
}

// SetAmplitude sets the peak-to-peak amplitude of source n in volts.
func SetAmplitude(n int, vpp float64) string {
	return fmt.Sprintf(":SOURce%d:VOLTAGE:AMPLitude %s", channel(n), formatValue(vpp))
}

// SetFrequency sets the frequency of source n in hertz.
func SetFrequency(n int, hz float64) string {
	return fmt.Sprintf(":SOURce%d:FREQ %s", channel(n), formatValue(hz))
}

// SetPhase sets the start phase of source n in degrees.
func SetPhase(n int, deg float64) string {
	return fmt.Sprintf(":SOURce%d:PHASe %s", channel(n), formatValue(deg))
}

// SetOutputImpedance sets the output impedance of output n in ohms.
func SetOutputImpedance(n int, ohms float64) string {
	return fmt.Sprintf(":OUTPut%d:IMPedance %s", channel(n), formatValue(ohms))
}

// OutputImpedance is the source impedance programmed by [SetupSequence].
const OutputImpedance = 50 // ohms

// SetupSequence returns the commands that bring source 1 to a sine at
// amplitude and frequency with the output still off.
func SetupSequence(vpp, hz float64) []string {
	return []string{
		Reset(),
		Clear(),
		SetOutput(1, Off),
		SetOutputImpedance(1, OutputImpedance),
		SetFunctionVoltageAC(),
		SetVoltageACBandwidth(BandwidthMin),
		SetFunctionSine(1),
		SetPhase(1, 0),
		SetAmplitude(1, vpp),
		SetFrequency(1, hz),
	}
}

// ShutdownSequence returns the commands that switch the output off and
// clear the status registers.
func ShutdownSequence() []string {
	return []string{SetOutput(1, Off), Clear()}
}

func channel(n int) int { return max(n, 0) }

// formatValue rounds to five decimals, the resolution the generators accept.
func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e5)/1e5, 'f', -1, 64)
}
