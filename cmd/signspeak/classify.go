package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/speech"
)

var classifyOpts struct {
	model string
	out   string
}

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Predict the sign in a single image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("model") {
			cfg.Model.Path = classifyOpts.model
		}
		ctx := cmd.Context()

		img, err := loadImage(args[0])
		if err != nil {
			return err
		}

		svc, err := buildServices(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer svc.Close()

		res, err := svc.rec.Classify(ctx, img)
		if err != nil {
			return err
		}

		fmt.Printf("%s\t%.3f\n", res.Label, res.Confidence)
		if res.FullFrame {
			logger.Info("no hand box, classified full frame", zap.String("file", args[0]))
		}

		if classifyOpts.out == "" {
			return nil
		}
		tts, err := speech.New(cfg.SpeechConfig())
		if err != nil {
			return err
		}
		spoken, err := tts.Synthesize(ctx, res.Label)
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		if err := os.WriteFile(classifyOpts.out, spoken.Data, 0644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyOpts.model, "model", "m", "", "Path to the ONNX sign model")
	classifyCmd.Flags().StringVarP(&classifyOpts.out, "speak", "o", "", "Also write the spoken label to this file")
	rootCmd.AddCommand(classifyCmd)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
