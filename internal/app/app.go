// Package app wires capture, state, animation, persistence, hooks and the
// HTTP server into the running cakewish application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/cakewish/internal/capture"
	"github.com/ayusman/cakewish/internal/config"
	"github.com/ayusman/cakewish/internal/detector"
	"github.com/ayusman/cakewish/internal/hook"
	"github.com/ayusman/cakewish/internal/perception"
	"github.com/ayusman/cakewish/internal/scene"
	"github.com/ayusman/cakewish/internal/server"
	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

// Config holds the dependencies of the application.
type Config struct {
	Settings config.Config
	Logger   *slog.Logger

	// Camera overrides the webcam named by Settings.Camera.DeviceID.
	Camera capture.Camera
	// Recognizer overrides the MediaPipe recognizer service.
	Recognizer detector.Recognizer
	// DisablePerception runs without camera input; the scene is driven
	// only through the HTTP action endpoint.
	DisablePerception bool
}

// App is the running application. The perception loop and the render loop
// run independently and share only the state store and the latest frame.
type App struct {
	config   Config
	settings config.Config
	logger   *slog.Logger

	db       *store.Store
	state    *state.Store
	animator *scene.Animator
	plugins  *hook.Manager
	hooks    *hook.Dispatcher
	recorder *transitionRecorder
	server   *server.Server

	frame   atomic.Pointer[scene.Frame]
	adapter atomic.Pointer[perception.Adapter]
	paused  atomic.Bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	listener net.Listener
	stopped  bool
}

// New opens persistent storage, restores saved photos and rotation, and
// assembles every component. Nothing runs until Start.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settings := cfg.Settings

	if err := os.MkdirAll(settings.Storage.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := store.New(settings.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		config:   cfg,
		settings: settings,
		logger:   logger,
		db:       db,
	}

	a.state = state.NewStoreFrom(restoreSnapshot(db, logger.With(slog.String("component", "restore"))))

	a.animator = scene.NewAnimator(a.state, sceneOptions(settings), logger.With(slog.String("component", "scene")))

	a.plugins = hook.NewManager(settings.Hooks.Dir, logger.With(slog.String("component", "plugins")))
	if err := a.plugins.Discover(); err != nil {
		logger.Warn("plugin discovery failed", slog.String("dir", settings.Hooks.Dir), slog.Any("error", err))
	}
	a.hooks = hook.NewDispatcher(
		db.Hooks(),
		a.plugins,
		hook.NewExecutor(time.Duration(settings.Hooks.TimeoutMs)*time.Millisecond),
		logger.With(slog.String("component", "hooks")),
	)

	a.recorder = newTransitionRecorder(db.Transitions(), logger.With(slog.String("component", "history")))

	a.state.Subscribe(a.recorder.OnTransition)
	a.state.Subscribe(a.hooks.OnTransition)
	a.state.Subscribe(func(prev, next state.Snapshot) {
		if prev.State != next.State {
			logger.Info("state changed",
				slog.String("from", string(prev.State)),
				slog.String("to", string(next.State)),
				slog.String("gesture", string(next.Gesture)))
		}
	})

	a.server = server.New(server.Config{
		StaticDir:    settings.Server.StaticDir,
		PhotoDir:     settings.PhotoDir(),
		BroadcastFPS: settings.Server.BroadcastFPS,
		State:        a.state,
		Store:        db,
		Plugins:      a.plugins,
		Hooks:        a.hooks,
		Scene:        a.animator,
		Frames:       a,
		Preview:      a,
		Logger:       logger.With(slog.String("component", "server")),
	})

	return a, nil
}

func sceneOptions(s config.Config) scene.Options {
	return scene.Options{
		Particles:         s.Render.Particles,
		Frosting:          s.Render.Frosting,
		Seed:              s.Render.Seed,
		ParticleLerp:      s.Animation.ParticleLerp,
		FrostingLerp:      s.Animation.FrostingLerp,
		CandleLerp:        s.Animation.CandleLerp,
		PhotoLerp:         s.Animation.PhotoLerp,
		AutoRotateSpeed:   s.Animation.AutoRotateSpeed,
		FrostingPositions: s.Render.FrostingPositions,
	}
}

// Start launches the render loop, the history writer, the HTTP server (when
// an address is configured) and perception. A failure to bind the HTTP
// address is returned; perception failures are only logged.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if a.stopped {
		return errors.New("app already stopped")
	}

	var ln net.Listener
	if addr := a.settings.Server.Addr; addr != "" {
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		a.listener = ln
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.goRun(func() { a.recorder.Run(ctx) })
	a.goRun(func() { a.runRender(ctx) })

	if ln != nil {
		a.goRun(func() {
			if err := a.server.Serve(ctx, ln); err != nil {
				a.logger.Error("http server stopped", slog.Any("error", err))
			}
		})
	}

	if !a.config.DisablePerception {
		a.goRun(func() { a.runPerception(ctx) })
	} else {
		a.logger.Info("perception disabled")
	}

	a.logger.Info("app started")
	return nil
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// runPerception builds the camera and recognizer and runs the capture loop.
// Initialization failures leave perception idle; the rest of the app keeps
// running.
func (a *App) runPerception(ctx context.Context) {
	logger := a.logger.With(slog.String("component", "perception"))

	camera := a.config.Camera
	if camera == nil {
		camera = capture.NewCamera(capture.Options{
			DeviceID: a.settings.Camera.DeviceID,
			Width:    a.settings.Camera.Width,
			Height:   a.settings.Camera.Height,
			FPS:      a.settings.Camera.ActiveFPS,
		})
	}

	recognizer := a.config.Recognizer
	if recognizer == nil {
		rc := detector.DefaultConfig()
		rc.Python = a.settings.Recognizer.Python
		rc.Script = a.settings.Recognizer.Script
		rc.Model = a.settings.Recognizer.Model
		if a.settings.Recognizer.NumHands > 0 {
			rc.NumHands = a.settings.Recognizer.NumHands
		}
		mp, err := detector.NewMediaPipeRecognizer(rc)
		if err != nil {
			logger.Error("gesture recognizer unavailable, perception idle", slog.Any("error", err))
			return
		}
		recognizer = mp
	}

	adapter := perception.NewAdapter(camera, recognizer, a.state, perception.Options{
		ActiveFPS:       a.settings.Camera.ActiveFPS,
		IdleFPS:         a.settings.Camera.IdleFPS,
		IdleTimeout:     time.Duration(a.settings.Camera.IdleTimeoutMs) * time.Millisecond,
		MotionThreshold: a.settings.Camera.MotionThreshold,
		Preview:         true,
	}, logger)
	if a.paused.Load() {
		adapter.Pause()
	}
	a.adapter.Store(adapter)

	if err := adapter.Run(ctx); err != nil {
		logger.Error("perception failed to start, continuing without camera", slog.Any("error", err))
	}
}

// Stop cancels every loop, waits for them to release their resources,
// persists the rotation offset and closes storage. It is safe to call more
// than once.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	a.hooks.Close()

	saveSnapshot(a.db, a.state.Snapshot(), a.logger)

	if err := a.db.Close(); err != nil {
		a.logger.Warn("close store", slog.Any("error", err))
	}
	a.logger.Info("app stopped")
}

// Latest returns the most recently rendered frame, or nil before the first
// render tick.
func (a *App) Latest() *scene.Frame {
	return a.frame.Load()
}

// Preview returns the latest camera preview JPEG, or nil without a camera.
func (a *App) Preview() []byte {
	if ad := a.adapter.Load(); ad != nil {
		return ad.Preview()
	}
	return nil
}

// SetPerceptionEnabled pauses or resumes gesture recognition.
func (a *App) SetPerceptionEnabled(enabled bool) {
	a.paused.Store(!enabled)
	ad := a.adapter.Load()
	if ad == nil {
		return
	}
	if enabled {
		ad.Resume()
	} else {
		ad.Pause()
	}
}

// PerceptionStats returns the capture loop counters, if perception started.
func (a *App) PerceptionStats() (perception.Stats, bool) {
	if ad := a.adapter.Load(); ad != nil {
		return ad.Stats(), true
	}
	return perception.Stats{}, false
}

// State returns the shared state store.
func (a *App) State() *state.Store {
	return a.state
}

// Store returns the persistent store.
func (a *App) Store() *store.Store {
	return a.db
}

// Plugins returns the plugin manager.
func (a *App) Plugins() *hook.Manager {
	return a.plugins
}

// Handler returns the HTTP handler serving the scene.
func (a *App) Handler() http.Handler {
	return a.server
}

// Subscribe registers fn as a state listener.
func (a *App) Subscribe(fn state.Listener) {
	a.state.Subscribe(fn)
}

// URL returns the viewer address once the server is listening.
func (a *App) URL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	addr := a.listener.Addr().(*net.TCPAddr)
	host := "localhost"
	if ip := addr.IP; ip != nil && !ip.IsUnspecified() {
		host = ip.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(addr.Port))
}
