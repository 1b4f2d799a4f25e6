package features

import "math"

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

func melToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return melFSp * mel
}

// melBand is one triangular filter stored by its non-zero span.
type melBand struct {
	lo      int
	weights []float64
}

// melFilterBank builds Slaney-normalised triangular filters from 0 Hz to
// nyquist over nfft/2+1 bins.
func melFilterBank(nMels, nfft, sr int) []melBand {
	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sr) / float64(nfft)
	}

	minMel, maxMel := hzToMel(0), hzToMel(float64(sr)/2)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	bank := make([]melBand, nMels)
	for m := 0; m < nMels; m++ {
		lowerDiff := melF[m+1] - melF[m]
		upperDiff := melF[m+2] - melF[m+1]
		enorm := 2.0 / (melF[m+2] - melF[m])

		lo, hi := -1, -1
		dense := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - melF[m]) / lowerDiff
			upper := (melF[m+2] - f) / upperDiff
			w := math.Max(0, math.Min(lower, upper))
			if w <= 0 {
				continue
			}
			dense[k] = w * enorm
			if lo < 0 {
				lo = k
			}
			hi = k
		}
		if lo < 0 {
			bank[m] = melBand{}
			continue
		}
		bank[m] = melBand{lo: lo, weights: dense[lo : hi+1]}
	}
	return bank
}

// chromaFilterBank returns [nChroma][nfft/2+1] Gaussian pitch-class bumps
// weighted around octave 5, starting at C. tuning shifts the A440 reference
// by that fraction of a chroma bin.
func chromaFilterBank(nChroma, nfft, sr int, tuning float64) [][]float64 {
	const (
		ctroct   = 5.0
		octwidth = 2.0
	)

	frqbins := make([]float64, nfft)
	for i := 1; i < nfft; i++ {
		f := float64(i) * float64(sr) / float64(nfft)
		frqbins[i] = float64(nChroma) * hzToOcts(f, tuning, nChroma)
	}
	frqbins[0] = frqbins[1] - 1.5*float64(nChroma)

	binwidth := make([]float64, nfft)
	for i := 0; i < nfft-1; i++ {
		binwidth[i] = math.Max(frqbins[i+1]-frqbins[i], 1.0)
	}
	binwidth[nfft-1] = 1

	half := math.Round(float64(nChroma) / 2)
	wts := make([][]float64, nChroma)
	for c := range wts {
		wts[c] = make([]float64, nfft)
	}
	for i := 0; i < nfft; i++ {
		norm := 0.0
		for c := 0; c < nChroma; c++ {
			d := frqbins[i] - float64(c)
			d = pyMod(d+half+10*float64(nChroma), float64(nChroma)) - half
			w := math.Exp(-0.5 * math.Pow(2*d/binwidth[i], 2))
			wts[c][i] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		octScale := math.Exp(-0.5 * math.Pow((frqbins[i]/float64(nChroma)-ctroct)/octwidth, 2))
		for c := 0; c < nChroma; c++ {
			if norm > 0 {
				wts[c][i] /= norm
			}
			wts[c][i] *= octScale
		}
	}

	// rotate so row 0 is C rather than A
	shift := 3 * (nChroma / 12)
	bins := nfft/2 + 1
	out := make([][]float64, nChroma)
	for c := 0; c < nChroma; c++ {
		out[c] = wts[(c+shift)%nChroma][:bins]
	}
	return out
}

// pyMod has the sign of the divisor.
func pyMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}

func powerToDB(x, amin float64) float64 {
	return 10 * math.Log10(math.Max(amin, x))
}
