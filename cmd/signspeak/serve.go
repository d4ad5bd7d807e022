package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/server"
)

var serveOpts struct {
	host   string
	port   int
	model  string
	webDir string
	store  string
	speech string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recognition web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Server.Host = serveOpts.host
		}
		if flags.Changed("port") {
			cfg.Server.Port = serveOpts.port
		}
		if flags.Changed("model") {
			cfg.Model.Path = serveOpts.model
		}
		if flags.Changed("web") {
			cfg.Server.WebDir = serveOpts.webDir
		}
		if flags.Changed("store") {
			cfg.Audio.Store = serveOpts.store
		}
		if flags.Changed("speech") {
			cfg.Speech.Backend = serveOpts.speech
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.host, "host", "", "Bind address (default from config: 0.0.0.0)")
	serveCmd.Flags().IntVarP(&serveOpts.port, "port", "p", 0, "Port to listen on (default from config: 5000)")
	serveCmd.Flags().StringVarP(&serveOpts.model, "model", "m", "", "Path to the ONNX sign model")
	serveCmd.Flags().StringVar(&serveOpts.webDir, "web", "", "Directory containing index.html")
	serveCmd.Flags().StringVar(&serveOpts.store, "store", "", "Audio store: dir, sqlite or s3")
	serveCmd.Flags().StringVar(&serveOpts.speech, "speech", "", "Speech backend: gtts, elevenlabs, openai or piper")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	webDir := cfg.Server.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		logger.Info("serving web client", zap.String("dir", webDir))
	}

	srvCfg := server.Config{
		Recognizer:     svc.rec,
		WebDir:         webDir,
		RequestTimeout: cfg.Server.RequestTimeout.Std(),
		RateLimit:      cfg.Server.RateLimit,
		MaxBody:        cfg.Server.MaxBody,
		Logger:         logger,
	}
	switch s := svc.store.(type) {
	case *audio.DirStore:
		srvCfg.StaticDirs = []string{s.Dir()}
	case audio.Opener:
		srvCfg.Clips = s
	}

	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("speech", cfg.Speech.Backend),
		zap.String("store", cfg.Audio.Store))

	if err := server.New(srvCfg).Run(ctx, cfg.Server.Addr()); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.signspeak/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if isWebDir(p) {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".signspeak", "web")
	if isWebDir(homeWebDir) {
		return homeWebDir
	}

	return ""
}

func isWebDir(p string) bool {
	info, err := os.Stat(filepath.Join(p, "index.html"))
	return err == nil && !info.IsDir()
}
