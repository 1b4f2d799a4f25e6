package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(data []byte) (*Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav header", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read wav pcm: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	bits := int(dec.BitDepth)
	if bits <= 0 || bits > 32 {
		return nil, fmt.Errorf("%w: wav bit depth %d", ErrUnsupportedFormat, bits)
	}

	samples := make([]float64, len(buf.Data))
	if bits == 8 {
		// 8-bit wav is unsigned with 128 as silence
		for i, v := range buf.Data {
			samples[i] = float64(v-128) / 128.0
		}
	} else {
		scale := float64(int64(1) << (bits - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	}

	return &Clip{
		Samples:    downmix(samples, channels),
		SampleRate: int(dec.SampleRate),
	}, nil
}
