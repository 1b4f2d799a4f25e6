package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Vovarama1992/voicecheck/internal/models"
)

// Classifier pairs the scaler with the model. It is immutable after Load.
type Classifier struct {
	scaler *Scaler
	model  *Model
}

func New(scaler *Scaler, model *Model) (*Classifier, error) {
	if scaler == nil || model == nil {
		return nil, fmt.Errorf("%w: scaler and model are required", ErrBadModel)
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}
	if err := model.validate(len(scaler.Mean)); err != nil {
		return nil, err
	}
	return &Classifier{scaler: scaler, model: model}, nil
}

// Load reads both artifacts; the encoding is picked from each extension.
func Load(modelPath, scalerPath string) (*Classifier, error) {
	var scaler Scaler
	if err := readArtifact(scalerPath, &scaler); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	var model Model
	if err := readArtifact(modelPath, &model); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return New(&scaler, &model)
}

func readArtifact(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(dst)
	case ".msgpack", ".mpk":
		return msgpack.Unmarshal(raw, dst)
	default:
		return fmt.Errorf("unsupported artifact encoding %q", filepath.Ext(path))
	}
}

func (c *Classifier) Features() int { return len(c.scaler.Mean) }

func (c *Classifier) Predict(features []float64) (Prediction, error) {
	scaled, err := c.scaler.Transform(features)
	if err != nil {
		return Prediction{}, err
	}

	proba := c.model.predictProba(scaled)
	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return Prediction{Class: c.model.Classes[best], Probabilities: proba}, nil
}

// Label maps class 1 to Real and everything else to Fake.
func Label(class int) string {
	if class == 1 {
		return models.PredictionReal
	}
	return models.PredictionFake
}
