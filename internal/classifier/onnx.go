package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/frame"
)

// ONNXConfig configures the ONNX Runtime backed classifier.
type ONNXConfig struct {
	ModelPath string
	// MetadataPath optionally points to a JSON file describing tensor
	// names, shapes and classes. Fields present there override the defaults.
	MetadataPath string
	// SharedLibraryPath is the onnxruntime shared library. Empty uses the
	// platform default lookup.
	SharedLibraryPath string
	InputName         string
	OutputName        string
	InputSize         int
}

// Metadata describes the exported model.
type Metadata struct {
	InputName  string   `json:"input_name"`
	OutputName string   `json:"output_name"`
	ImageSize  int      `json:"image_size"`
	Classes    []string `json:"classes"`
}

// ONNXClassifier runs the pretrained sign model through ONNX Runtime.
type ONNXClassifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	size         int
	ownsEnv      bool
	log          *zap.Logger
}

// NewONNXClassifier loads the model and allocates its input and output tensors.
func NewONNXClassifier(cfg ONNXConfig, log *zap.Logger) (*ONNXClassifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = frame.InputSize
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if cfg.MetadataPath != "" {
		meta, err := loadMetadata(cfg.MetadataPath)
		if err != nil {
			return nil, err
		}
		if err := meta.apply(&cfg); err != nil {
			return nil, err
		}
	}

	c := &ONNXClassifier{size: cfg.InputSize, log: log.Named("classifier")}

	if !ort.IsInitialized() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		c.ownsEnv = true
	}

	size := int64(cfg.InputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	c.inputTensor = inputTensor

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(NumClasses)))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	c.outputTensor = outputTensor

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	c.session = session

	c.log.Info("model loaded",
		zap.String("path", cfg.ModelPath),
		zap.String("input", cfg.InputName),
		zap.String("output", cfg.OutputName),
		zap.Int("size", cfg.InputSize))

	return c, nil
}

func loadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

// apply overrides cfg with the fields present in m. The class list must
// match Labels in order, since predictions are decoded by index.
func (m *Metadata) apply(cfg *ONNXConfig) error {
	if m.InputName != "" {
		cfg.InputName = m.InputName
	}
	if m.OutputName != "" {
		cfg.OutputName = m.OutputName
	}
	if m.ImageSize > 0 {
		cfg.InputSize = m.ImageSize
	}
	if len(m.Classes) == 0 {
		return nil
	}
	if len(m.Classes) != NumClasses {
		return fmt.Errorf("metadata lists %d classes, want %d", len(m.Classes), NumClasses)
	}
	for i, name := range m.Classes {
		if name != Labels[i] {
			return fmt.Errorf("metadata class %d is %q, want %q", i, name, Labels[i])
		}
	}
	return nil
}

// InputSize returns the square image size the model expects.
func (c *ONNXClassifier) InputSize() int { return c.size }

// Classify runs inference on t.
func (c *ONNXClassifier) Classify(ctx context.Context, t *frame.Tensor) (*Prediction, error) {
	if t == nil || t.Size != c.size {
		return nil, fmt.Errorf("input tensor size mismatch: model expects %d", c.size)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), t.Data)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	probs := make([]float32, len(out))
	copy(probs, out)

	return NewPrediction(probs)
}

// Close releases the session, tensors and, if this classifier created it,
// the ONNX environment.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.ownsEnv {
		c.ownsEnv = false
		return ort.DestroyEnvironment()
	}
	return nil
}
