// Package recognize turns a browser frame into a spoken sign prediction.
//
// The pipeline is linear: decode the data URL, find the hand, crop and
// normalize it, classify, synthesize the label and store the clip. Each
// stage reports failures with its own Kind.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/classifier"
	"github.com/sarthakdhakal/signspeak/internal/detector"
	"github.com/sarthakdhakal/signspeak/internal/frame"
	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// Options tunes the pipeline.
type Options struct {
	InputSize   int
	Padding     float64
	RequireHand bool
}

// DefaultOptions returns the 224px input and 30% padding the model was
// trained with.
func DefaultOptions() Options {
	return Options{
		InputSize: frame.InputSize,
		Padding:   frame.DefaultPadding,
	}
}

// Deps holds the long-lived collaborators, built once at startup.
type Deps struct {
	Detector    detector.Detector
	Classifier  classifier.Classifier
	Synthesizer speech.Synthesizer
	Store       audio.Store
	Logger      *zap.Logger
	Options     Options
}

// Result is a successful recognition.
type Result struct {
	ID         string     `json:"id"`
	Label      string     `json:"prediction"`
	Confidence float32    `json:"confidence"`
	AudioURL   string     `json:"audio"`
	HandBox    *frame.Box `json:"box,omitempty"`
	// FullFrame is set when no usable hand box was found and the whole
	// frame was classified.
	FullFrame bool `json:"full_frame"`
}

// Recognizer runs the pipeline.
type Recognizer struct {
	deps Deps
	log  *zap.Logger
}

// New validates deps and returns a Recognizer. Synthesizer and Store may
// be nil only if Recognize is never called.
func New(deps Deps) (*Recognizer, error) {
	if deps.Detector == nil {
		return nil, errors.New("recognize: detector is required")
	}
	if deps.Classifier == nil {
		return nil, errors.New("recognize: classifier is required")
	}
	// The classifier knows the size its model was exported with.
	if sized, ok := deps.Classifier.(interface{ InputSize() int }); ok && sized.InputSize() > 0 {
		deps.Options.InputSize = sized.InputSize()
	}
	if deps.Options.InputSize <= 0 {
		deps.Options.InputSize = frame.InputSize
	}
	if deps.Options.Padding < 0 {
		deps.Options.Padding = frame.DefaultPadding
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Recognizer{deps: deps, log: log.Named("recognize")}, nil
}

// Recognize decodes dataURL, classifies the sign in it and returns the
// label together with the URL of its spoken audio.
func (r *Recognizer) Recognize(ctx context.Context, dataURL string) (*Result, error) {
	if r.deps.Synthesizer == nil || r.deps.Store == nil {
		return nil, errors.New("recognize: synthesizer and store are required")
	}

	start := time.Now()

	img, err := frame.DecodeDataURL(dataURL)
	if err != nil {
		return nil, fail(KindDecode, err)
	}

	res, err := r.Classify(ctx, img)
	if err != nil {
		return nil, err
	}

	spoken, err := r.deps.Synthesizer.Synthesize(ctx, res.Label)
	if err != nil {
		return nil, fail(KindSynthesis, err)
	}

	url, err := r.deps.Store.Save(ctx, &audio.Clip{
		ID:     res.ID,
		Data:   spoken.Data,
		Format: spoken.Format,
	})
	if err != nil {
		return nil, fail(KindStorage, err)
	}
	res.AudioURL = url

	r.log.Info("prediction",
		zap.String("id", res.ID),
		zap.String("label", res.Label),
		zap.Float32("confidence", res.Confidence),
		zap.Bool("full_frame", res.FullFrame),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// Classify runs detection, cropping and classification on an already
// decoded image. No audio is produced.
func (r *Recognizer) Classify(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(KindUnknown, err)
	}

	hands, err := r.deps.Detector.Detect(ctx, img)
	if err != nil {
		return nil, fail(KindDetection, err)
	}

	res := &Result{ID: uuid.NewString()}

	var box *frame.Box
	if len(hands) == 0 {
		if r.deps.Options.RequireHand {
			return nil, fail(KindNoHand, errors.New("no hand in frame"))
		}
		res.FullFrame = true
	} else {
		b := img.Bounds()
		hb := frame.HandBox(&hands[0], b.Dx(), b.Dy(), r.deps.Options.Padding)
		if hb.Empty() {
			r.log.Debug("degenerate hand box, using full frame", zap.Any("box", hb))
			res.FullFrame = true
		} else {
			box = &hb
			res.HandBox = &hb
		}
	}

	tensor, err := frame.Preprocess(img, box, r.deps.Options.InputSize)
	if err != nil {
		return nil, fail(KindDecode, err)
	}

	pred, err := r.deps.Classifier.Classify(ctx, tensor)
	if err != nil {
		return nil, fail(KindInference, err)
	}
	if !classifier.IsLabel(pred.Label) {
		return nil, fail(KindInference, fmt.Errorf("label %q outside vocabulary", pred.Label))
	}

	res.Label = pred.Label
	res.Confidence = pred.Confidence
	return res, nil
}
