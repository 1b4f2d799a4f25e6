package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Decoder struct {
	ffmpeg   string
	ffprobe  string
	fallback bool
}

// NewDecoder returns a decoder for WAV and MP3. When fallback is set, data
// the native decoders reject is handed to ffmpeg.
func NewDecoder(ffmpegBin, ffprobeBin string, fallback bool) *Decoder {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Decoder{ffmpeg: ffmpegBin, ffprobe: ffprobeBin, fallback: fallback}
}

func (d *Decoder) Decode(ctx context.Context, name string, data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	var (
		clip *Clip
		err  error
	)
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case "wav", "wave":
		clip, err = decodeWAV(data)
	case "mp3":
		clip, err = decodeMP3(data)
	default:
		err = fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}

	if err != nil && d.fallback && errors.Is(err, ErrUnsupportedFormat) {
		clip, err = decodeFFmpeg(ctx, d.ffmpeg, d.ffprobe, data)
	}
	if err != nil {
		return nil, err
	}
	if len(clip.Samples) == 0 || clip.SampleRate <= 0 {
		return nil, ErrEmptyAudio
	}
	return clip, nil
}
