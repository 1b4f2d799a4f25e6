package stations

import (
	"fmt"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type S3ExtractFeatures struct {
	extractor ports.FeatureExtractor
	log       *logger.ZapLogger
}

func NewS3ExtractFeatures(extractor ports.FeatureExtractor, log *logger.ZapLogger) *S3ExtractFeatures {
	return &S3ExtractFeatures{extractor: extractor, log: log}
}

func (s *S3ExtractFeatures) Run(clip *audio.Clip) ([]float64, error) {
	start := time.Now()

	vec, err := s.extractor.Extract(clip)
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[S3][FAIL]",
			Error:   err,
		})
		return nil, fmt.Errorf("extract features: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S3][OK]",
		Fields:  map[string]any{"features": len(vec), "took": time.Since(start).String()},
	})
	return vec, nil
}
