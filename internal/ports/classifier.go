package ports

import (
	"context"

	"github.com/Vovarama1992/voicecheck/internal/audio"
	"github.com/Vovarama1992/voicecheck/internal/classifier"
)

type AudioDecoder interface {
	Decode(ctx context.Context, name string, data []byte) (*audio.Clip, error)
}

type FeatureExtractor interface {
	Extract(clip *audio.Clip) ([]float64, error)
}

type Classifier interface {
	Predict(features []float64) (classifier.Prediction, error)
}
