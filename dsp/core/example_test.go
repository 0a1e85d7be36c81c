package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-audiotest/dsp/core"
)

func ExampleConvert() {
	vpp, err := core.Convert(4, core.DBu, core.Vpp)
	if err != nil {
		panic(err)
	}

	fmt.Printf("+4 dBu = %.4f Vpp\n", vpp)

	// Output:
	// +4 dBu = 3.4723 Vpp
}

func ExampleGainDB() {
	fmt.Printf("%.2f dB\n", core.GainDB(0.25, 0.5))

	// Output:
	// -6.02 dB
}
