package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarthakdhakal/signspeak/internal/frame"
)

func TestLabels(t *testing.T) {
	if NumClasses != 36 {
		t.Fatalf("expected 36 labels, got %d", NumClasses)
	}
	if Labels[0] != "0" || Labels[9] != "9" || Labels[10] != "a" || Labels[35] != "z" {
		t.Errorf("unexpected vocabulary order: %v", Labels)
	}

	seen := make(map[string]bool)
	for _, l := range Labels {
		if seen[l] {
			t.Errorf("duplicate label %q", l)
		}
		seen[l] = true
		if !IsLabel(l) {
			t.Errorf("IsLabel(%q) = false", l)
		}
	}

	if l, ok := Label(11); !ok || l != "b" {
		t.Errorf("Label(11) = %q, %v", l, ok)
	}
	if _, ok := Label(NumClasses); ok {
		t.Error("Label(NumClasses) should be out of range")
	}

	for _, s := range []string{"Error", "", "A", "10"} {
		if IsLabel(s) {
			t.Errorf("IsLabel(%q) = true", s)
		}
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		values []float32
		want   int
	}{
		{"empty", nil, -1},
		{"single", []float32{0.3}, 0},
		{"max at end", []float32{0.1, 0.2, 0.7}, 2},
		{"max in middle", []float32{0.1, 0.8, 0.1}, 1},
		{"tie picks first", []float32{0.4, 0.2, 0.4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Argmax(tt.values); got != tt.want {
				t.Errorf("Argmax(%v) = %d, want %d", tt.values, got, tt.want)
			}
		})
	}
}

func TestNewPrediction(t *testing.T) {
	t.Run("picks most probable label", func(t *testing.T) {
		probs := make([]float32, NumClasses)
		probs[5] = 0.97

		p, err := NewPrediction(probs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Label != "5" || p.Index != 5 || p.Confidence != 0.97 {
			t.Errorf("unexpected prediction: %+v", p)
		}
		if len(p.Probabilities) != NumClasses {
			t.Errorf("expected %d probabilities, got %d", NumClasses, len(p.Probabilities))
		}
	})

	t.Run("rejects wrong output size", func(t *testing.T) {
		_, err := NewPrediction(make([]float32, 10))
		if !errors.Is(err, ErrOutputSize) {
			t.Errorf("expected ErrOutputSize, got %v", err)
		}
	})
}

func TestMockClassifier(t *testing.T) {
	m := NewMockClassifier("q")
	tensor := &frame.Tensor{Size: 1, Data: make([]float32, 3)}

	p, err := m.Classify(context.Background(), tensor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Label != "q" {
		t.Errorf("expected q, got %s", p.Label)
	}
	if m.LastTensor() != tensor {
		t.Error("expected tensor to be recorded")
	}

	m.SetError(errors.New("boom"))
	if _, err := m.Classify(context.Background(), tensor); err == nil {
		t.Error("expected configured error")
	}
}

func TestNewONNXClassifier_MissingModel(t *testing.T) {
	_, err := NewONNXClassifier(ONNXConfig{ModelPath: filepath.Join(t.TempDir(), "missing.onnx")}, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMetadata_Apply(t *testing.T) {
	reversed := make([]string, NumClasses)
	for i, l := range Labels {
		reversed[NumClasses-1-i] = l
	}

	tests := []struct {
		name    string
		meta    Metadata
		want    ONNXConfig
		wantErr bool
	}{
		{
			name: "empty metadata keeps config",
			want: ONNXConfig{InputName: "input", OutputName: "output", InputSize: 224},
		},
		{
			name: "image size and names override config",
			meta: Metadata{InputName: "x", OutputName: "probs", ImageSize: 160},
			want: ONNXConfig{InputName: "x", OutputName: "probs", InputSize: 160},
		},
		{
			name: "classes in label order",
			meta: Metadata{Classes: append([]string(nil), Labels[:]...)},
			want: ONNXConfig{InputName: "input", OutputName: "output", InputSize: 224},
		},
		{
			name:    "classes in another order",
			meta:    Metadata{Classes: reversed},
			wantErr: true,
		},
		{
			name:    "too few classes",
			meta:    Metadata{Classes: Labels[:10]},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ONNXConfig{InputName: "input", OutputName: "output", InputSize: 224}

			err := tt.meta.apply(&cfg)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply() error = %v", err)
			}
			if cfg != tt.want {
				t.Errorf("config = %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

func TestLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(`{"image_size": 160, "input_name": "pixels"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := loadMetadata(path)
	if err != nil {
		t.Fatalf("loadMetadata() error = %v", err)
	}
	if meta.ImageSize != 160 || meta.InputName != "pixels" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestONNXClassifier_Model(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	modelPath := os.Getenv("SIGNSPEAK_TEST_MODEL")
	if modelPath == "" {
		t.Skip("SIGNSPEAK_TEST_MODEL not set")
	}

	c, err := NewONNXClassifier(ONNXConfig{
		ModelPath:         modelPath,
		SharedLibraryPath: os.Getenv("ONNXRUNTIME_LIB"),
		InputName:         os.Getenv("SIGNSPEAK_TEST_INPUT"),
		OutputName:        os.Getenv("SIGNSPEAK_TEST_OUTPUT"),
	}, nil)
	if err != nil {
		t.Fatalf("NewONNXClassifier() error = %v", err)
	}
	defer c.Close()

	tensor := &frame.Tensor{Size: c.InputSize(), Data: make([]float32, c.InputSize()*c.InputSize()*3)}
	p, err := c.Classify(context.Background(), tensor)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !IsLabel(p.Label) {
		t.Errorf("label %q not in vocabulary", p.Label)
	}
}
