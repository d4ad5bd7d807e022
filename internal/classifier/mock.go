package classifier

import (
	"context"
	"sync"

	"github.com/sarthakdhakal/signspeak/internal/frame"
)

// MockClassifier returns fixed probabilities, for tests.
type MockClassifier struct {
	mu    sync.Mutex
	probs []float32
	err   error
	last  *frame.Tensor
	size  int
}

// NewMockClassifier returns a classifier that always predicts label.
func NewMockClassifier(label string) *MockClassifier {
	m := &MockClassifier{}
	m.SetLabel(label)
	return m
}

// SetLabel makes label the confident prediction.
func (m *MockClassifier) SetLabel(label string) {
	probs := make([]float32, NumClasses)
	for i, l := range Labels {
		if l == label {
			probs[i] = 0.9
		} else {
			probs[i] = 0.1 / float32(NumClasses-1)
		}
	}
	m.SetProbabilities(probs)
}

// SetProbabilities sets the raw model output.
func (m *MockClassifier) SetProbabilities(probs []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probs = probs
}

// SetError sets the error returned by Classify.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetInputSize sets the size reported by InputSize. Zero means unset.
func (m *MockClassifier) SetInputSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = size
}

// InputSize returns the size set with SetInputSize.
func (m *MockClassifier) InputSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// LastTensor returns the tensor passed to the most recent Classify call.
func (m *MockClassifier) LastTensor() *frame.Tensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Classify returns the configured prediction.
func (m *MockClassifier) Classify(ctx context.Context, t *frame.Tensor) (*Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = t
	if m.err != nil {
		return nil, m.err
	}
	return NewPrediction(m.probs)
}

// Close is a no-op.
func (m *MockClassifier) Close() error { return nil }
