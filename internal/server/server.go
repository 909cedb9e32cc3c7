// Package server provides the HTTP server for the cakewish scene.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/cakewish/internal/hook"
	"github.com/ayusman/cakewish/internal/server/api"
	"github.com/ayusman/cakewish/internal/store"
)

// PluginRegistry looks up, lists and rescans plugins.
type PluginRegistry interface {
	api.PluginLookup
	api.PluginCatalog
}

// Config holds the server configuration. Nil dependencies disable the
// routes that need them.
type Config struct {
	StaticDir    string
	PhotoDir     string
	BroadcastFPS int

	State   api.StateStore
	Store   *store.Store
	Plugins PluginRegistry
	Hooks   api.HookTrigger
	Scene   api.LayoutSource
	Frames  FrameSource
	Preview PreviewSource

	Logger *slog.Logger
}

// Server represents the HTTP server for the cakewish application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	frames *FramesHandler
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.State != nil {
		s.mux.Handle("/api/state", api.NewStateHandler(s.config.State))
		s.mux.Handle("/api/actions", api.NewActionHandler(s.config.State))
	}

	if s.config.Scene != nil {
		s.mux.Handle("/api/scene", api.NewSceneHandler(s.config.Scene))
	}

	if s.config.Frames != nil {
		s.frames = NewFramesHandler(s.config.Frames, s.config.BroadcastFPS, s.logger)
		s.mux.Handle("/api/frames", s.frames)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/transitions", api.NewTransitionHandler(s.config.Store.Transitions()))

		if s.config.State != nil && s.config.PhotoDir != "" {
			s.mux.Handle("/api/photos", api.NewPhotoHandler(s.config.Store.Photos(), s.config.State, s.config.PhotoDir, s.logger))
			s.mux.Handle(api.PhotoURLPrefix, http.StripPrefix(api.PhotoURLPrefix, http.FileServer(http.Dir(s.config.PhotoDir))))
		}

		if s.config.Plugins != nil {
			hooks := api.NewHookHandler(s.config.Store.Hooks(), s.config.Plugins, s.config.Hooks)
			s.mux.Handle("/api/hooks", hooks)
			s.mux.Handle("/api/hooks/", hooks)
		}
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.frames != nil {
		response["clients"] = s.frames.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Serve serves HTTP on ln and broadcasts frames until ctx is done, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	if s.frames != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.frames.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked websocket connections are closed by the frames broadcaster.
		err = srv.Shutdown(shutdownCtx)
	case err = <-errCh:
	}

	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

var _ PluginRegistry = (*hook.Manager)(nil)
