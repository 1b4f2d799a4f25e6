package features

import "math"

const zeroThreshold = 1e-10

// frameCount matches centred framing: one frame per hop plus the first.
func frameCount(n, hop int) int {
	return 1 + n/hop
}

// zeroCrossingRate pads with edge values, then counts sign changes inside
// each frame; the first sample of a frame never counts as a crossing.
func zeroCrossingRate(y []float64, frameLength, hop int) []float64 {
	half := frameLength / 2
	n := len(y)
	sample := func(i int) float64 {
		j := i - half
		if j < 0 {
			j = 0
		} else if j >= n {
			j = n - 1
		}
		v := y[j]
		if math.Abs(v) <= zeroThreshold {
			return 0
		}
		return v
	}

	frames := frameCount(n, hop)
	out := make([]float64, frames)
	for t := 0; t < frames; t++ {
		start := t * hop
		prev := math.Signbit(sample(start))
		crossings := 0
		for i := 1; i < frameLength; i++ {
			cur := math.Signbit(sample(start + i))
			if cur != prev {
				crossings++
			}
			prev = cur
		}
		out[t] = float64(crossings) / float64(frameLength)
	}
	return out
}

// rms pads with zeros on both sides.
func rms(y []float64, frameLength, hop int) []float64 {
	half := frameLength / 2
	n := len(y)
	frames := frameCount(n, hop)
	out := make([]float64, frames)
	for t := 0; t < frames; t++ {
		start := t*hop - half
		sum := 0.0
		for i := 0; i < frameLength; i++ {
			j := start + i
			if j < 0 || j >= n {
				continue
			}
			sum += y[j] * y[j]
		}
		out[t] = math.Sqrt(sum / float64(frameLength))
	}
	return out
}
