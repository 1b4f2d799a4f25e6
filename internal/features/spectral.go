package features

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	amin = 1e-10
	tiny = 1e-30
)

type spectralStats struct {
	centroid     []float64
	bandwidth    []float64
	contrastMean float64
	chromaMean   float64
	tuning       float64
	mfccMean     []float64
}

type contrastBand struct {
	lo, hi int // bin span, hi exclusive
	alpha  int
}

// contrastBands splits the spectrum into octave bands above fmin. Every band
// borrows one bin below its lower edge; the last band runs to nyquist.
func contrastBands(nBands int, fmin float64, bins, nfft, sr int, quantile float64) []contrastBand {
	edges := make([]float64, nBands+2)
	for k := 1; k < len(edges); k++ {
		edges[k] = fmin * math.Pow(2, float64(k-1))
	}

	freq := func(k int) float64 { return float64(k) * float64(sr) / float64(nfft) }

	out := make([]contrastBand, 0, nBands+1)
	for k := 0; k <= nBands; k++ {
		first, last := -1, -1
		for b := 0; b < bins; b++ {
			f := freq(b)
			if f >= edges[k] && f <= edges[k+1] {
				if first < 0 {
					first = b
				}
				last = b
			}
		}
		if first < 0 {
			out = append(out, contrastBand{})
			continue
		}

		lo, hi := first, last+1
		if k > 0 && lo > 0 {
			lo--
		}
		if k == nBands {
			hi = bins
		}
		selected := hi - lo
		if k < nBands {
			hi-- // drop the top bin, it belongs to the next band
		}
		alpha := int(math.Max(1, math.RoundToEven(quantile*float64(selected))))
		out = append(out, contrastBand{lo: lo, hi: hi, alpha: alpha})
	}
	return out
}

// spectral runs one centred STFT pass and derives every frequency-domain
// statistic from it.
func (e *Extractor) spectral(y []float64, sr int) spectralStats {
	cfg := e.cfg
	nfft := cfg.NFFT
	bins := nfft/2 + 1
	half := nfft / 2
	frames := frameCount(len(y), cfg.HopLength)

	fft := fourier.NewFFT(nfft)
	melBank := melFilterBank(cfg.NMels, nfft, sr)
	bands := contrastBands(cfg.ContrastBands, cfg.ContrastFMin, bins, nfft, sr, cfg.ContrastQuantile)

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sr) / float64(nfft)
	}

	stats := spectralStats{
		centroid:  make([]float64, frames),
		bandwidth: make([]float64, frames),
	}
	melDB := make([][]float64, frames)
	peaks := make([]float64, 0, frames*len(bands))
	valleys := make([]float64, 0, frames*len(bands))
	powers := make([][]float64, frames)
	var pitchPeaks []pitchPeak

	frame := make([]float64, nfft)
	coeffs := make([]complex128, bins)
	mag := make([]float64, bins)
	sub := make([]float64, 0, bins)

	for t := 0; t < frames; t++ {
		start := t*cfg.HopLength - half
		for i := 0; i < nfft; i++ {
			j := start + i
			if j < 0 || j >= len(y) {
				frame[i] = 0
				continue
			}
			frame[i] = y[j] * e.window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		power := make([]float64, bins)
		total := 0.0
		weighted := 0.0
		for k, c := range coeffs {
			m := cmplx.Abs(c)
			mag[k] = m
			power[k] = m * m
			total += m
			weighted += freqs[k] * m
		}

		// centroid and bandwidth over the L1-normalised magnitude
		if total > tiny {
			centroid := weighted / total
			spread := 0.0
			for k, m := range mag {
				d := freqs[k] - centroid
				spread += (m / total) * d * d
			}
			stats.centroid[t] = centroid
			stats.bandwidth[t] = math.Sqrt(spread)
		}

		for _, b := range bands {
			if b.hi <= b.lo {
				peaks = append(peaks, 0)
				valleys = append(valleys, 0)
				continue
			}
			sub = append(sub[:0], mag[b.lo:b.hi]...)
			sort.Float64s(sub)
			alpha := b.alpha
			if alpha > len(sub) {
				alpha = len(sub)
			}
			valleys = append(valleys, meanOf(sub[:alpha]))
			peaks = append(peaks, meanOf(sub[len(sub)-alpha:]))
		}

		powers[t] = power
		pitchPeaks = appendPitchPeaks(pitchPeaks, power, sr, nfft)

		row := make([]float64, cfg.NMels)
		for m, band := range melBank {
			v := 0.0
			for i, w := range band.weights {
				v += w * power[band.lo+i]
			}
			row[m] = powerToDB(v, amin)
		}
		melDB[t] = row
	}

	stats.tuning = estimateTuning(pitchPeaks, cfg.NChroma)
	stats.chromaMean = chromaMean(powers, chromaFilterBank(cfg.NChroma, nfft, sr, stats.tuning))
	stats.contrastMean = contrastMean(peaks, valleys, cfg.TopDB)
	stats.mfccMean = mfccMean(melDB, cfg.NMFCC, cfg.TopDB)
	return stats
}

// chromaMean projects every power frame onto the chroma bank, scales each
// frame by its largest pitch class and averages all cells.
func chromaMean(powers [][]float64, bank [][]float64) float64 {
	if len(powers) == 0 || len(bank) == 0 {
		return 0
	}
	chroma := make([]float64, len(bank))
	sum := 0.0
	for _, power := range powers {
		maxChroma := 0.0
		for c, row := range bank {
			v := 0.0
			for k, w := range row {
				v += w * power[k]
			}
			chroma[c] = v
			if v > maxChroma {
				maxChroma = v
			}
		}
		if maxChroma > tiny {
			for _, v := range chroma {
				sum += v / maxChroma
			}
		}
	}
	return sum / float64(len(powers)*len(bank))
}

// contrastMean converts peaks and valleys to dB (each clipped to TopDB
// below its own maximum) and averages their difference.
func contrastMean(peaks, valleys []float64, topDB float64) float64 {
	if len(peaks) == 0 {
		return 0
	}
	p := toDBClipped(peaks, topDB)
	v := toDBClipped(valleys, topDB)
	sum := 0.0
	for i := range p {
		sum += p[i] - v[i]
	}
	return sum / float64(len(p))
}

func toDBClipped(xs []float64, topDB float64) []float64 {
	out := make([]float64, len(xs))
	maxDB := math.Inf(-1)
	for i, x := range xs {
		out[i] = powerToDB(x, amin)
		if out[i] > maxDB {
			maxDB = out[i]
		}
	}
	floor := maxDB - topDB
	for i := range out {
		if out[i] < floor {
			out[i] = floor
		}
	}
	return out
}

// mfccMean clips the log-mel spectrogram to topDB below its global maximum,
// applies an orthonormal DCT-II per frame and averages each coefficient.
func mfccMean(melDB [][]float64, nMFCC int, topDB float64) []float64 {
	out := make([]float64, nMFCC)
	if len(melDB) == 0 {
		return out
	}

	maxDB := math.Inf(-1)
	for _, row := range melDB {
		for _, v := range row {
			if v > maxDB {
				maxDB = v
			}
		}
	}
	floor := maxDB - topDB

	nMels := len(melDB[0])
	basis := dctBasis(nMFCC, nMels)
	for _, row := range melDB {
		for k := 0; k < nMFCC; k++ {
			s := 0.0
			for n, v := range row {
				if v < floor {
					v = floor
				}
				s += v * basis[k][n]
			}
			out[k] += s
		}
	}
	for k := range out {
		out[k] /= float64(len(melDB))
	}
	return out
}

// dctBasis holds the first k rows of the orthonormal DCT-II matrix.
func dctBasis(k, n int) [][]float64 {
	basis := make([][]float64, k)
	for i := 0; i < k; i++ {
		scale := math.Sqrt(2.0 / float64(n))
		if i == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = scale * math.Cos(math.Pi*float64(i)*(2*float64(j)+1)/(2*float64(n)))
		}
		basis[i] = row
	}
	return basis
}
