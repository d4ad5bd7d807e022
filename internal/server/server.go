// Package server provides the HTTP server for the SignSpeak recognition service.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/recognize"
)

// DefaultMaxBody caps request bodies on /predict and websocket messages.
const DefaultMaxBody = 10 << 20

// Recognizer is the pipeline the server drives.
type Recognizer interface {
	Recognize(ctx context.Context, dataURL string) (*recognize.Result, error)
}

// Config holds the server configuration.
type Config struct {
	Recognizer Recognizer
	// Clips serves stored audio at /audio/{id} when set.
	Clips audio.Opener
	// WebDir holds index.html. Its static/ subdirectory is served under
	// /static/ together with StaticDirs.
	WebDir string
	// StaticDirs are extra directories served under /static/, searched
	// before the web assets. The DirStore output directory goes here.
	StaticDirs     []string
	RequestTimeout time.Duration
	// RateLimit is the number of /predict requests allowed per client IP
	// per minute. Zero disables limiting.
	RateLimit int
	MaxBody   int64
	Logger    *zap.Logger
}

// Server represents the HTTP server for the SignSpeak application.
type Server struct {
	config Config
	router chi.Router
	log    *zap.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.MaxBody <= 0 {
		config.MaxBody = DefaultMaxBody
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    log.Named("server"),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)

	if s.config.Recognizer != nil {
		var limit []func(http.Handler) http.Handler
		if s.config.RateLimit > 0 {
			limit = append(limit, httprate.LimitByIP(s.config.RateLimit, time.Minute))
		}
		predict := r.With(limit...)
		predict.Post("/predict", s.handlePredict)
		predict.Get("/api/ws", s.handleWS)
	}

	if s.config.Clips != nil {
		r.Get("/audio/{file}", s.handleAudio)
	}

	var static dirs
	for _, d := range s.config.StaticDirs {
		static = append(static, http.Dir(d))
	}
	if s.config.WebDir != "" {
		static = append(static, http.Dir(filepath.Join(s.config.WebDir, "static")))
	}
	if len(static) > 0 {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static)))
	}

	if s.config.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.WebDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleAudio serves a clip from the configured Opener.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	clip, err := s.config.Clips.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("open clip", zap.String("file", name), zap.Error(err))
		http.Error(w, "Failed to load clip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", clip.ContentType())
	http.ServeContent(w, r, clip.ID+clip.Ext(), clip.CreatedAt, bytes.NewReader(clip.Data))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// dirs is an http.FileSystem that searches several directories in order.
type dirs []http.Dir

func (d dirs) Open(name string) (http.File, error) {
	err := error(os.ErrNotExist)
	for _, dir := range d {
		f, openErr := dir.Open(name)
		if openErr == nil {
			return f, nil
		}
		err = openErr
	}
	return nil, err
}
