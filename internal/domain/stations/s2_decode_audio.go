package stations

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type S2DecodeAudio struct {
	decoder ports.AudioDecoder
	log     *logger.ZapLogger
}

func NewS2DecodeAudio(decoder ports.AudioDecoder, log *logger.ZapLogger) *S2DecodeAudio {
	return &S2DecodeAudio{decoder: decoder, log: log}
}

func (s *S2DecodeAudio) Run(ctx context.Context, name string, data []byte) (*audio.Clip, error) {
	start := time.Now()

	clip, err := s.decoder.Decode(ctx, name, data)
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[S2][FAIL]",
			Fields:  map[string]any{"name": name, "bytes": len(data)},
			Error:   err,
		})
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S2][OK]",
		Fields: map[string]any{
			"name":       name,
			"samples":    len(clip.Samples),
			"sampleRate": clip.SampleRate,
			"seconds":    clip.Duration().Seconds(),
			"took":       time.Since(start).String(),
		},
	})
	return clip, nil
}
