// Package classifier evaluates the pretrained real-vs-synthetic voice model.
//
// The model and its feature scaler are exported from the training notebook
// as two artifacts, JSON or msgpack, holding the fitted parameters of a
// standard scaler and of a logistic regression, a decision tree or a random
// forest (trees use the flattened node arrays of the training library).
package classifier

import (
	"errors"
	"fmt"
	"math"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
)

var (
	ErrFeatureCount = errors.New("classifier: feature count mismatch")
	ErrBadModel     = errors.New("classifier: malformed model")
)

type Model struct {
	Type    string `json:"type" msgpack:"type"`
	Classes []int  `json:"classes" msgpack:"classes"`

	// logistic regression
	Coef      [][]float64 `json:"coef,omitempty" msgpack:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty" msgpack:"intercept,omitempty"`

	// decision tree / random forest
	Trees []Tree `json:"trees,omitempty" msgpack:"trees,omitempty"`
}

// Tree is a fitted binary tree. Node i is a leaf when ChildrenLeft[i] == -1;
// Value[i] holds per-class sample counts (or fractions) at that node.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left" msgpack:"children_left"`
	ChildrenRight []int       `json:"children_right" msgpack:"children_right"`
	Feature       []int       `json:"feature" msgpack:"feature"`
	Threshold     []float64   `json:"threshold" msgpack:"threshold"`
	Value         [][]float64 `json:"value" msgpack:"value"`
}

type Prediction struct {
	Class         int
	Probabilities []float64 // aligned with Model.Classes
}

// Confidence is the probability of the predicted class.
func (p Prediction) Confidence() float64 {
	best := 0.0
	for _, v := range p.Probabilities {
		if v > best {
			best = v
		}
	}
	return best
}

func (m *Model) validate(nFeatures int) error {
	if len(m.Classes) < 2 {
		return fmt.Errorf("%w: need at least two classes", ErrBadModel)
	}
	switch m.Type {
	case KindLogisticRegression:
		rows := len(m.Classes)
		if rows == 2 {
			rows = 1
		}
		if len(m.Coef) != rows || len(m.Intercept) != rows {
			return fmt.Errorf("%w: logistic regression wants %d coefficient rows", ErrBadModel, rows)
		}
		for _, row := range m.Coef {
			if nFeatures > 0 && len(row) != nFeatures {
				return fmt.Errorf("%w: coefficient row has %d values, scaler has %d", ErrBadModel, len(row), nFeatures)
			}
		}
	case KindDecisionTree, KindRandomForest:
		if len(m.Trees) == 0 {
			return fmt.Errorf("%w: no trees", ErrBadModel)
		}
		if m.Type == KindDecisionTree && len(m.Trees) != 1 {
			return fmt.Errorf("%w: decision tree with %d trees", ErrBadModel, len(m.Trees))
		}
		for i := range m.Trees {
			if err := m.Trees[i].validate(len(m.Classes), nFeatures); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown model type %q", ErrBadModel, m.Type)
	}
	return nil
}

func (t *Tree) validate(nClasses, nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: tree arrays differ in length", ErrBadModel)
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("%w: leaf %d has %d class values", ErrBadModel, i, len(t.Value[i]))
			}
			continue
		}
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("%w: node %d has bad children", ErrBadModel, i)
		}
		if t.Feature[i] < 0 || (nFeatures > 0 && t.Feature[i] >= nFeatures) {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrBadModel, i, t.Feature[i])
		}
	}
	return nil
}

func (m *Model) predictProba(x []float64) []float64 {
	switch m.Type {
	case KindLogisticRegression:
		return m.logisticProba(x)
	default:
		out := make([]float64, len(m.Classes))
		for i := range m.Trees {
			for c, p := range m.Trees[i].leafProba(x) {
				out[c] += p
			}
		}
		for c := range out {
			out[c] /= float64(len(m.Trees))
		}
		return out
	}
}

func (m *Model) logisticProba(x []float64) []float64 {
	scores := make([]float64, len(m.Coef))
	for r, row := range m.Coef {
		s := m.Intercept[r]
		for i, w := range row {
			s += w * x[i]
		}
		scores[r] = s
	}

	if len(m.Classes) == 2 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	sum := 0.0
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func (t *Tree) leafProba(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}

	counts := t.Value[node]
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
