package features

import (
	"math"
	"sort"
)

// Peak picking bounds for tuning estimation.
const (
	pitchFMin        = 150.0
	pitchFMax        = 4000.0
	pitchThreshold   = 0.1
	tuningResolution = 0.01
)

// pitchPeak is a parabolic-interpolated local maximum of one power frame.
type pitchPeak struct {
	freq float64
	mag  float64
}

// appendPitchPeaks adds the local maxima of the power frame s that lie in
// [pitchFMin, min(pitchFMax, nyquist)) and exceed pitchThreshold times the
// frame maximum.
func appendPitchPeaks(dst []pitchPeak, s []float64, sr, nfft int) []pitchPeak {
	n := len(s)
	if n < 3 {
		return dst
	}

	ref := 0.0
	for _, v := range s {
		if v > ref {
			ref = v
		}
	}
	ref *= pitchThreshold

	gated := func(i int) float64 {
		if s[i] > ref {
			return s[i]
		}
		return 0
	}

	binHz := float64(sr) / float64(nfft)
	fmax := math.Min(pitchFMax, float64(sr)/2)
	for i := 0; i < n; i++ {
		f := float64(i) * binHz
		if f < pitchFMin || f >= fmax {
			continue
		}
		x := gated(i)
		prev := gated(max(i-1, 0))
		next := gated(min(i+1, n-1))
		if x <= prev || x < next {
			continue
		}

		var shift, slope float64
		switch i {
		case 0:
			slope = s[1] - s[0]
		case n - 1:
			slope = s[n-1] - s[n-2]
		default:
			slope = (s[i+1] - s[i-1]) / 2
			curve := s[i+1] + s[i-1] - 2*s[i]
			if math.Abs(slope) < math.Abs(curve) {
				shift = -slope / curve
			}
		}
		dst = append(dst, pitchPeak{
			freq: (float64(i) + shift) * binHz,
			mag:  s[i] + 0.5*slope*shift,
		})
	}
	return dst
}

// estimateTuning keeps the peaks at or above the median magnitude and returns
// the most common deviation from the equal-tempered grid, in fractions of a
// bin, at tuningResolution. It returns 0 when there are no peaks.
func estimateTuning(peaks []pitchPeak, binsPerOctave int) float64 {
	if len(peaks) == 0 {
		return 0
	}

	mags := make([]float64, len(peaks))
	for i, p := range peaks {
		mags[i] = p.mag
	}
	threshold := median(mags)

	freqs := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		if p.mag >= threshold && p.freq > 0 {
			freqs = append(freqs, p.freq)
		}
	}
	return pitchTuning(freqs, tuningResolution, binsPerOctave)
}

// pitchTuning histograms each frequency's distance to the nearest bin of the
// A440 grid over [-0.5, 0.5] and returns the left edge of the fullest cell.
func pitchTuning(freqs []float64, resolution float64, binsPerOctave int) float64 {
	if len(freqs) == 0 {
		return 0
	}

	nCells := int(math.Ceil(1 / resolution))
	edges := make([]float64, nCells+1)
	step := 1 / float64(nCells)
	for i := range edges {
		edges[i] = -0.5 + float64(i)*step
	}
	edges[nCells] = 0.5

	counts := make([]int, nCells)
	for _, f := range freqs {
		r := pyMod(float64(binsPerOctave)*hzToOcts(f, 0, binsPerOctave), 1)
		if r >= 0.5 {
			r--
		}
		idx := int(math.Floor((r + 0.5) * float64(nCells)))
		idx = min(max(idx, 0), nCells-1)
		if r < edges[idx] {
			idx--
		} else if idx < nCells-1 && r >= edges[idx+1] {
			idx++
		}
		if idx >= 0 {
			counts[idx]++
		}
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return edges[best]
}

// hzToOcts measures f in octaves above C0 of a grid tuned by tuning bins.
func hzToOcts(f, tuning float64, binsPerOctave int) float64 {
	a440 := 440.0 * math.Pow(2, tuning/float64(binsPerOctave))
	return math.Log2(f / (a440 / 16))
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
