package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Reference levels.
const (
	// DBuReference is the RMS voltage of 0 dBu (1 mW into 600 Ω).
	DBuReference = 0.77459667
	// DBVReference is the RMS voltage of 0 dBV.
	DBVReference = 1.0
)

// ErrUnknownUnit is returned when a voltage unit cannot be parsed.
var ErrUnknownUnit = errors.New("core: unknown voltage unit")

// Unit identifies how a voltage level is expressed.
type Unit int

const (
	// Vrms is a root-mean-square voltage.
	Vrms Unit = iota
	// Vpp is a peak-to-peak voltage.
	Vpp
	// DBu is a level relative to [DBuReference].
	DBu
	// DBV is a level relative to 1 Vrms.
	DBV
)

var unitNames = map[Unit]string{
	Vrms: "Vrms",
	Vpp:  "Vpp",
	DBu:  "dBu",
	DBV:  "dBV",
}

func (u Unit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit parses a unit name case-insensitively.
func ParseUnit(s string) (Unit, error) {
	for u, name := range unitNames {
		if strings.EqualFold(s, name) {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// VppToVrms converts a sine peak-to-peak voltage to RMS.
func VppToVrms(vpp float64) float64 {
	return vpp / (2 * math.Sqrt2)
}

// VrmsToVpp converts a sine RMS voltage to peak-to-peak.
func VrmsToVpp(vrms float64) float64 {
	return vrms * 2 * math.Sqrt2
}

// VrmsToDBu converts an RMS voltage to dBu.
func VrmsToDBu(vrms float64) float64 {
	return LinearToDB(vrms / DBuReference)
}

// DBuToVrms converts a dBu level to RMS voltage.
func DBuToVrms(dbu float64) float64 {
	return DBuReference * DBToLinear(dbu)
}

// VrmsToDBV converts an RMS voltage to dBV.
func VrmsToDBV(vrms float64) float64 {
	return LinearToDB(vrms / DBVReference)
}

// DBVToVrms converts a dBV level to RMS voltage.
func DBVToVrms(dbv float64) float64 {
	return DBVReference * DBToLinear(dbv)
}

// GainDB returns 20*log10(measured/reference).
func GainDB(measured, reference float64) float64 {
	if reference <= 0 {
		return math.NaN()
	}
	return LinearToDB(measured / reference)
}

// Convert expresses value, given in unit from, in unit to.
func Convert(value float64, from, to Unit) (float64, error) {
	var vrms float64

	switch from {
	case Vrms:
		vrms = value
	case Vpp:
		vrms = VppToVrms(value)
	case DBu:
		vrms = DBuToVrms(value)
	case DBV:
		vrms = DBVToVrms(value)
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownUnit, from)
	}

	switch to {
	case Vrms:
		return vrms, nil
	case Vpp:
		return VrmsToVpp(vrms), nil
	case DBu:
		return VrmsToDBu(vrms), nil
	case DBV:
		return VrmsToDBV(vrms), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownUnit, to)
	}
}
