package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(data []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("read mp3 pcm: %w", err)
	}
	if len(raw) < 4 {
		return nil, ErrEmptyAudio
	}
	raw = raw[:len(raw)-len(raw)%4]

	interleaved := make([]float64, len(raw)/2)
	for i := range interleaved {
		s := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
		interleaved[i] = float64(s) / 32768.0
	}

	return &Clip{
		Samples:    downmix(interleaved, 2),
		SampleRate: dec.SampleRate(),
	}, nil
}
