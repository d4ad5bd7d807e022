package speech

import (
	"context"
	"sync"
)

// MockSynthesizer returns canned audio, for tests.
type MockSynthesizer struct {
	mu    sync.Mutex
	data  []byte
	err   error
	texts []string
}

// NewMockSynthesizer returns a synthesizer producing a small fake mp3.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{data: []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake-mp3")}
}

// SetError sets the error returned by Synthesize.
func (m *MockSynthesizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Texts returns every text passed to Synthesize.
func (m *MockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Synthesize records text and returns the canned audio.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	text, err := checkText(text)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return &Audio{Data: append([]byte(nil), m.data...), Format: FormatMP3}, nil
}
