package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/classifier"
	"github.com/sarthakdhakal/signspeak/internal/config"
	"github.com/sarthakdhakal/signspeak/internal/detector"
	"github.com/sarthakdhakal/signspeak/internal/recognize"
	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// services owns everything built from the config and closes it in reverse.
type services struct {
	rec    *recognize.Recognizer
	store  audio.Store
	closer []func() error
}

func (rt *services) Close() error {
	var errs []error
	for i := len(rt.closer) - 1; i >= 0; i-- {
		if err := rt.closer[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildServices wires the pipeline. withSpeech also builds the synthesizer
// and audio store.
func buildServices(ctx context.Context, cfg config.Config, log *zap.Logger, withSpeech bool) (*services, error) {
	rt := &services{}
	deps := recognize.Deps{
		Logger: log,
		Options: recognize.Options{
			InputSize:   cfg.Model.InputSize,
			Padding:     cfg.Detector.Padding,
			RequireHand: cfg.Detector.RequireHand,
		},
	}

	deps.Detector = openDetector(ctx, cfg, log)
	rt.closer = append(rt.closer, deps.Detector.Close)

	cls, err := classifier.NewONNXClassifier(cfg.ONNXConfig(), log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	deps.Classifier = cls
	rt.closer = append(rt.closer, cls.Close)

	if withSpeech {
		tts, err := speech.New(cfg.SpeechConfig())
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to init speech: %w", err)
		}
		deps.Synthesizer = tts

		store, err := openStore(ctx, cfg, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		deps.Store = store
		rt.store = store
		rt.closer = append(rt.closer, store.Close)
	}

	rt.rec, err = recognize.New(deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// detectorStartTimeout bounds the MediaPipe handshake, which includes
// loading the model.
const detectorStartTimeout = 30 * time.Second

// openDetector tries MediaPipe first and falls back to a detector that never
// finds a hand, so full frames are classified.
func openDetector(ctx context.Context, cfg config.Config, log *zap.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig(), log)
	if err != nil {
		log.Warn("MediaPipe not available, classifying full frames", zap.Error(err))
		return detector.NewMockDetector()
	}

	pingCtx, cancel := context.WithTimeout(ctx, detectorStartTimeout)
	defer cancel()
	if err := mp.Ping(pingCtx); err != nil {
		mp.Close()
		log.Warn("MediaPipe worker did not start, classifying full frames", zap.Error(err))
		return detector.NewMockDetector()
	}

	log.Info("using MediaPipe hand detection")
	return mp
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (audio.Store, error) {
	switch cfg.Audio.Store {
	case config.StoreSQLite:
		s, err := audio.NewSQLiteStore(cfg.Audio.DBPath, cfg.Audio.TTL.Std(), "/audio", log)
		if err != nil {
			return nil, fmt.Errorf("failed to open clip database: %w", err)
		}
		return s, nil
	case config.StoreS3:
		s, err := audio.NewS3Store(ctx, cfg.S3Config(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to init s3: %w", err)
		}
		return s, nil
	default:
		s, err := audio.NewDirStore(cfg.Audio.Dir, "/static", log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
