package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/classifier"
)

var batchOpts struct {
	model   string
	verbose bool
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Classify a directory of labelled images and report accuracy",
	Long: `Classify every .jpg, .jpeg and .png under <dir>. The expected label is the
name of the containing directory (e.g. a/img1.jpg) or the file name prefix
before the first underscore (e.g. a_001.jpg).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("model") {
			cfg.Model.Path = batchOpts.model
		}
		ctx := cmd.Context()

		files, err := collectImages(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no images found in %s", args[0])
		}

		svc, err := buildServices(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer svc.Close()

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Classifying"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		var labelled, correct int
		var misses []string
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			bar.Add(1)

			img, err := loadImage(path)
			if err != nil {
				logger.Warn("skipping file", zap.String("file", path), zap.Error(err))
				continue
			}
			res, err := svc.rec.Classify(ctx, img)
			if err != nil {
				logger.Warn("classification failed", zap.String("file", path), zap.Error(err))
				continue
			}

			want := expectedLabel(path)
			if want == "" {
				continue
			}
			labelled++
			if res.Label == want {
				correct++
			} else {
				misses = append(misses, fmt.Sprintf("%s: got %s, want %s", path, res.Label, want))
			}
		}
		bar.Finish()
		fmt.Fprintln(os.Stderr)

		if batchOpts.verbose {
			for _, m := range misses {
				fmt.Println(m)
			}
		}
		if labelled == 0 {
			fmt.Printf("classified %d images, none labelled\n", len(files))
			return nil
		}
		fmt.Printf("accuracy %.2f%% (%d/%d)\n", 100*float64(correct)/float64(labelled), correct, labelled)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOpts.model, "model", "m", "", "Path to the ONNX sign model")
	batchCmd.Flags().BoolVarP(&batchOpts.verbose, "verbose", "v", false, "List misclassified files")
	rootCmd.AddCommand(batchCmd)
}

func collectImages(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// expectedLabel derives the ground truth label from the parent directory
// or the file name prefix. Returns "" when neither is a known label.
func expectedLabel(path string) string {
	if dir := strings.ToLower(filepath.Base(filepath.Dir(path))); classifier.IsLabel(dir) {
		return dir
	}
	name := strings.ToLower(filepath.Base(path))
	if prefix, _, ok := strings.Cut(name, "_"); ok && classifier.IsLabel(prefix) {
		return prefix
	}
	return ""
}
