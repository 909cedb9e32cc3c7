package perception

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/cakewish/internal/capture"
	"github.com/ayusman/cakewish/internal/detector"
	"github.com/ayusman/cakewish/internal/state"
)

// Dispatcher is the part of the state store perception writes to.
type Dispatcher interface {
	Dispatch(state.Action) state.Snapshot
}

// Options tunes the capture loop.
type Options struct {
	ActiveFPS       int
	IdleFPS         int
	IdleTimeout     time.Duration
	MotionThreshold float64 // percent of changed pixels; 0 disables rate switching
	Preview         bool
}

// DefaultOptions returns the stock capture settings.
func DefaultOptions() Options {
	return Options{
		ActiveFPS:       30,
		IdleFPS:         10,
		IdleTimeout:     2 * time.Second,
		MotionThreshold: 1.0,
		Preview:         true,
	}
}

// Stats counts what the loop has done since it started.
type Stats struct {
	Processed   uint64        `json:"processed"`
	Duplicates  uint64        `json:"duplicates"`
	Errors      uint64        `json:"errors"`
	Active      bool          `json:"active"`
	Paused      bool          `json:"paused"`
	Running     bool          `json:"running"`
	LastGesture state.Gesture `json:"last_gesture"`
}

// Adapter reads camera frames on its own ticker, runs the recognizer on each
// new frame and dispatches gesture, hand position and rotation actions.
type Adapter struct {
	camera     capture.Camera
	recognizer detector.Recognizer
	store      Dispatcher
	opts       Options
	logger     *slog.Logger

	clock  Clock
	motion *capture.MotionDetector
	rate   *capture.RateController
	now    func() time.Time

	lastPos float64
	havePos bool

	paused  atomic.Bool
	running atomic.Bool
	active  atomic.Bool
	preview atomic.Pointer[[]byte]

	processed  atomic.Uint64
	duplicates atomic.Uint64
	errors     atomic.Uint64

	mu          sync.Mutex
	lastGesture state.Gesture
}

// NewAdapter wires a camera and recognizer to store. The adapter owns both
// and closes them when Run returns.
func NewAdapter(camera capture.Camera, recognizer detector.Recognizer, store Dispatcher, opts Options, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ActiveFPS <= 0 {
		opts.ActiveFPS = DefaultOptions().ActiveFPS
	}
	if opts.IdleFPS <= 0 || opts.IdleFPS > opts.ActiveFPS {
		opts.IdleFPS = opts.ActiveFPS
	}

	a := &Adapter{
		camera:      camera,
		recognizer:  recognizer,
		store:       store,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		lastGesture: state.GestureNone,
	}
	if opts.MotionThreshold > 0 && opts.IdleFPS < opts.ActiveFPS {
		a.motion = capture.NewMotionDetector(opts.MotionThreshold)
		a.rate = capture.NewRateController(opts.ActiveFPS, opts.IdleFPS, opts.IdleTimeout)
	} else {
		a.active.Store(true)
	}
	return a
}

// Run opens the camera and processes frames until ctx is done. An error is
// returned only when the camera cannot be opened; per-frame failures are
// logged and skipped. Camera and recognizer are closed before Run returns,
// and a recognizer call still in flight when ctx ends is interrupted if the
// recognizer supports it. A ctx that is already done returns nil without
// opening the camera.
func (a *Adapter) Run(ctx context.Context) error {
	defer a.release()

	if ctx.Err() != nil {
		return nil
	}

	stop := make(chan struct{})
	defer close(stop)
	if in, ok := a.recognizer.(detector.Interrupter); ok {
		go func() {
			select {
			case <-ctx.Done():
				in.Interrupt()
			case <-stop:
			}
		}()
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.running.Store(true)
	defer a.running.Store(false)

	fps := a.opts.ActiveFPS
	if a.rate != nil {
		fps = a.rate.FPS()
	}
	a.camera.SetFPS(fps)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	a.logger.Info("perception started", slog.Int("fps", fps))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("perception stopping")
			return nil
		case <-ticker.C:
			if next, changed := a.tick(); changed {
				a.camera.SetFPS(next)
				ticker.Reset(time.Second / time.Duration(next))
				a.logger.Debug("capture rate changed", slog.Int("fps", next))
			}
		}
	}
}

// tick handles one frame. A panic anywhere in the frame's processing is
// logged and the frame dropped.
func (a *Adapter) tick() (fps int, changed bool) {
	defer func() {
		if r := recover(); r != nil {
			a.errors.Add(1)
			a.logger.Error("perception frame panicked", slog.Any("panic", r))
			changed = false
		}
	}()

	if a.paused.Load() {
		return 0, false
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.errors.Add(1)
		a.logger.Debug("read frame failed", slog.Any("error", err))
		return 0, false
	}
	defer frame.Close()

	if a.havePos && frame.Position == a.lastPos {
		a.duplicates.Add(1)
		return 0, false
	}
	a.lastPos, a.havePos = frame.Position, true

	now := a.now()
	if a.rate != nil {
		moving, _ := a.motion.Detect(frame.Mat)
		fps, changed = a.rate.Observe(moving, now)
		a.active.Store(a.rate.Active())
	}

	ts := a.clock.Next(now.UnixMilli())
	res, err := a.recognizer.Recognize(frame.Mat, ts)
	if err != nil {
		a.errors.Add(1)
		a.logger.Warn("recognize frame failed", slog.Int64("timestamp", ts), slog.Any("error", err))
		return fps, changed
	}

	gesture := Classify(res)
	for _, action := range Actions(res) {
		if _, isPosition := action.(state.SetHandPosition); !isPosition {
			a.logger.Debug("dispatch", slog.String("action", state.Describe(action)))
		}
		a.store.Dispatch(action)
	}
	a.setLastGesture(gesture)
	a.processed.Add(1)

	if a.opts.Preview {
		if data, err := capture.MirrorJPEG(frame.Mat); err == nil {
			a.preview.Store(&data)
		}
	}

	return fps, changed
}

func (a *Adapter) release() {
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.camera.Close(); err != nil {
		a.logger.Warn("close camera", slog.Any("error", err))
	}
	if err := a.recognizer.Close(); err != nil {
		a.logger.Warn("close recognizer", slog.Any("error", err))
	}
}

// Pause stops processing frames without releasing the camera. The current
// gesture is reset to NONE so nothing stays held.
func (a *Adapter) Pause() {
	if a.paused.Swap(true) {
		return
	}
	a.store.Dispatch(state.SetGesture{Gesture: state.GestureNone})
	a.setLastGesture(state.GestureNone)
	a.logger.Info("perception paused")
}

// Resume continues processing after Pause. The first frame after resuming
// primes motion detection instead of being compared with a stale one.
func (a *Adapter) Resume() {
	if !a.paused.Swap(false) {
		return
	}
	if a.motion != nil {
		a.motion.Reset()
	}
	a.logger.Info("perception resumed")
}

// Paused reports whether processing is paused.
func (a *Adapter) Paused() bool {
	return a.paused.Load()
}

// Preview returns the mirrored JPEG of the last processed frame, or nil.
func (a *Adapter) Preview() []byte {
	p := a.preview.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Stats returns loop counters.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	last := a.lastGesture
	a.mu.Unlock()

	return Stats{
		Processed:   a.processed.Load(),
		Duplicates:  a.duplicates.Load(),
		Errors:      a.errors.Load(),
		Active:      a.active.Load(),
		Paused:      a.paused.Load(),
		Running:     a.running.Load(),
		LastGesture: last,
	}
}

func (a *Adapter) setLastGesture(g state.Gesture) {
	a.mu.Lock()
	a.lastGesture = g
	a.mu.Unlock()
}
