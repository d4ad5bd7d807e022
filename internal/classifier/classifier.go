// Package classifier maps a normalized hand image to one of the 36
// alphanumeric sign labels.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarthakdhakal/signspeak/internal/frame"
)

// Labels is the model vocabulary in output order: digits, then letters.
var Labels = [...]string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j",
	"k", "l", "m", "n", "o", "p", "q", "r", "s", "t",
	"u", "v", "w", "x", "y", "z",
}

// NumClasses is the size of the vocabulary.
const NumClasses = len(Labels)

// ErrOutputSize is returned when the model output does not match the vocabulary.
var ErrOutputSize = errors.New("model output size does not match label vocabulary")

// Label returns the label at output index i.
func Label(i int) (string, bool) {
	if i < 0 || i >= NumClasses {
		return "", false
	}
	return Labels[i], true
}

// IsLabel reports whether s is in the vocabulary.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if l == s {
			return true
		}
	}
	return false
}

// Classifier predicts a sign label from a preprocessed frame.
type Classifier interface {
	Classify(ctx context.Context, t *frame.Tensor) (*Prediction, error)
	Close() error
}

// Prediction is the outcome of a single classification.
type Prediction struct {
	Label         string             `json:"label"`
	Index         int                `json:"index"`
	Confidence    float32            `json:"confidence"`
	Probabilities map[string]float32 `json:"probabilities,omitempty"`
}

// Argmax returns the index of the largest value. Ties resolve to the lowest
// index. Returns -1 for an empty slice.
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}

// NewPrediction builds a Prediction from raw class probabilities.
func NewPrediction(probs []float32) (*Prediction, error) {
	if len(probs) != NumClasses {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrOutputSize, len(probs), NumClasses)
	}

	idx := Argmax(probs)
	all := make(map[string]float32, NumClasses)
	for i, p := range probs {
		all[Labels[i]] = p
	}

	return &Prediction{
		Label:         Labels[idx],
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: all,
	}, nil
}
