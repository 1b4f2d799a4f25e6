package stations

import (
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/classifier"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

type S4Classify struct {
	clf ports.Classifier
	log *logger.ZapLogger
}

// NewS4Classify accepts a nil classifier; Ready then reports false.
func NewS4Classify(clf ports.Classifier, log *logger.ZapLogger) *S4Classify {
	return &S4Classify{clf: clf, log: log}
}

func (s *S4Classify) Ready() bool { return s != nil && s.clf != nil }

// Run returns the Real/Fake label and the probability of the predicted class.
func (s *S4Classify) Run(features []float64) (string, float64, error) {
	pred, err := s.clf.Predict(features)
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "[S4][FAIL]",
			Error:   err,
		})
		return "", 0, fmt.Errorf("predict: %w", err)
	}

	label := classifier.Label(pred.Class)
	confidence := pred.Confidence()

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[S4][OK]",
		Fields:  map[string]any{"prediction": label, "confidence": confidence},
	})
	return label, confidence, nil
}
