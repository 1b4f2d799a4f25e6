// Package features computes the scalar statistics the voice classifier was
// trained on. Frame layout follows the usual librosa defaults: 2048-sample
// centred frames with a 512-sample hop and a periodic Hann window.
package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Vovarama1992/voicecheck/internal/audio"
)

var (
	ErrEmptySignal = errors.New("features: empty signal")
	ErrNyquist     = errors.New("features: frequency band exceeds nyquist")
)

type Config struct {
	FrameLength      int
	HopLength        int
	NFFT             int
	NMels            int
	NMFCC            int
	NChroma          int
	ContrastBands    int
	ContrastFMin     float64
	ContrastQuantile float64
	TopDB            float64
}

func DefaultConfig() Config {
	return Config{
		FrameLength:      2048,
		HopLength:        512,
		NFFT:             2048,
		NMels:            128,
		NMFCC:            5,
		NChroma:          12,
		ContrastBands:    6,
		ContrastFMin:     200,
		ContrastQuantile: 0.02,
		TopDB:            80,
	}
}

// Vector is the classifier input. Slice returns it in training order.
type Vector struct {
	Duration          float64   `json:"duration"`
	ZeroCrossingRate  float64   `json:"zcr_mean"`
	MFCC              []float64 `json:"mfcc_mean"`
	SpectralCentroid  float64   `json:"spectral_centroid_mean"`
	SpectralBandwidth float64   `json:"spectral_bandwidth_mean"`
	SpectralContrast  float64   `json:"spectral_contrast_mean"`
	Chroma            float64   `json:"chroma_mean"`
	RMS               float64   `json:"rms_mean"`
	SampleRate        float64   `json:"sample_rate"`
}

func (v Vector) Slice() []float64 {
	out := make([]float64, 0, 8+len(v.MFCC))
	out = append(out, v.Duration, v.ZeroCrossingRate)
	out = append(out, v.MFCC...)
	return append(out,
		v.SpectralCentroid,
		v.SpectralBandwidth,
		v.SpectralContrast,
		v.Chroma,
		v.RMS,
		v.SampleRate,
	)
}

// Names labels Slice positions, mostly for CLI output.
func Names(nMFCC int) []string {
	names := []string{"duration", "zcr_mean"}
	for i := 1; i <= nMFCC; i++ {
		names = append(names, fmt.Sprintf("mfcc%d_mean", i))
	}
	return append(names,
		"spectral_centroid_mean",
		"spectral_bandwidth_mean",
		"spectral_contrast_mean",
		"chroma_mean",
		"rms_mean",
		"sample_rate",
	)
}

// Extractor is safe for concurrent use; per-call state lives on the stack.
type Extractor struct {
	cfg    Config
	window []float64
}

func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, window: hannWindow(cfg.NFFT)}
}

// Extract implements ports.FeatureExtractor.
func (e *Extractor) Extract(clip *audio.Clip) ([]float64, error) {
	v, err := e.Compute(clip)
	if err != nil {
		return nil, err
	}
	return v.Slice(), nil
}

func (e *Extractor) Compute(clip *audio.Clip) (Vector, error) {
	if clip == nil || len(clip.Samples) == 0 || clip.SampleRate <= 0 {
		return Vector{}, ErrEmptySignal
	}
	for _, s := range clip.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Vector{}, errors.New("features: signal is not finite")
		}
	}

	sr := clip.SampleRate
	nyquist := float64(sr) / 2
	highestEdge := e.cfg.ContrastFMin * math.Pow(2, float64(e.cfg.ContrastBands-1))
	if highestEdge >= nyquist {
		return Vector{}, fmt.Errorf("%w: band edge %.0f Hz, sample rate %d", ErrNyquist, highestEdge, sr)
	}

	stats := e.spectral(clip.Samples, sr)

	return Vector{
		Duration:          float64(len(clip.Samples)) / float64(sr),
		ZeroCrossingRate:  meanOf(zeroCrossingRate(clip.Samples, e.cfg.FrameLength, e.cfg.HopLength)),
		MFCC:              stats.mfccMean,
		SpectralCentroid:  meanOf(stats.centroid),
		SpectralBandwidth: meanOf(stats.bandwidth),
		SpectralContrast:  stats.contrastMean,
		Chroma:            stats.chromaMean,
		RMS:               meanOf(rms(clip.Samples, e.cfg.FrameLength, e.cfg.HopLength)),
		SampleRate:        float64(sr),
	}, nil
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
