package frequency

import "testing"

func BenchmarkCalculate(b *testing.B) {
	freqs := logGrid(20, 20000, 48)
	gains := firstOrder(freqs, lowPassDB(5000))

	for b.Loop() {
		if _, err := Calculate(freqs, gains); err != nil {
			b.Fatal(err)
		}
	}
}
