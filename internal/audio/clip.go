// Package audio turns uploaded WAV and MP3 bytes into mono floating point
// samples at the file's native sample rate.
package audio

import (
	"errors"
	"time"
)

var (
	ErrEmptyAudio        = errors.New("audio: no samples")
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)

// Clip is a mono signal with samples in [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// downmix averages interleaved channels into one.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	n := len(interleaved) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
