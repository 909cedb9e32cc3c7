package scene

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/ayusman/cakewish/internal/state"
)

// maxStep caps the time delta of one step so a stalled tick does not
// produce a visible jump in auto-rotation.
const maxStep = 250 * time.Millisecond

// Options tunes scene population and smoothing. Factors must be in (0, 1).
type Options struct {
	Particles       int
	Frosting        int
	Seed            int64
	ParticleLerp    float64
	FrostingLerp    float64
	CandleLerp      float64
	PhotoLerp       float64
	AutoRotateSpeed float64 // radians per second while assembled

	// FrostingPositions adds every frosting particle's drawn position to
	// each frame. Off by default; renderers normally apply FrostingPosition
	// themselves from the layout, the mix and the time.
	FrostingPositions bool
}

// DefaultOptions returns the stock scene.
func DefaultOptions() Options {
	return Options{
		Particles:       300,
		Frosting:        3500,
		ParticleLerp:    0.05,
		FrostingLerp:    0.05,
		CandleLerp:      0.04,
		PhotoLerp:       0.05,
		AutoRotateSpeed: 0.05,
	}
}

// Dispatcher is the part of the state store the animator needs.
type Dispatcher interface {
	Snapshot() state.Snapshot
	Dispatch(state.Action) state.Snapshot
}

// Layout is the static part of the scene, sent to a renderer once.
type Layout struct {
	Particles []Particle         `json:"particles"`
	Frosting  []FrostingParticle `json:"frosting"`
}

// Frame is the read-only presentation snapshot produced by one step.
type Frame struct {
	ID             uint64         `json:"id"`
	Time           float64        `json:"time"`
	State          state.AppState `json:"state"`
	Gesture        state.Gesture  `json:"gesture"`
	StatusText     string         `json:"status_text"`
	Hint           string         `json:"hint"`
	Yaw            float64        `json:"yaw"`
	RotationOffset float64        `json:"rotation_offset"`
	ActivePhoto    *int           `json:"active_photo"`
	Particles      []Vec3         `json:"particles"`
	Frosting       FrostingFrame  `json:"frosting"`
	Candle         CandleFrame    `json:"candle"`
	Photos         []PhotoFrame   `json:"photos"`
}

// Animator advances all entities toward their state targets.
// Step is meant to be called from a single render goroutine.
type Animator struct {
	opts   Options
	store  Dispatcher
	logger *slog.Logger

	mu           sync.Mutex
	layout       Layout
	particles    *particleField
	frosting     *frostingField
	candle       *candle
	photos       *photoRing
	start        time.Time
	last         time.Time
	autoRotation float64
	frameID      uint64
}

// NewAnimator generates the layout from opts.Seed and binds to store.
// A zero seed draws one from the clock.
func NewAnimator(store Dispatcher, opts Options, logger *slog.Logger) *Animator {
	if logger == nil {
		logger = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	layout := Layout{
		Particles: GenerateParticles(rng, opts.Particles),
		Frosting:  GenerateFrosting(rng, opts.Frosting),
	}

	return &Animator{
		opts:      opts,
		store:     store,
		logger:    logger,
		layout:    layout,
		particles: newParticleField(layout.Particles),
		frosting:  newFrostingField(layout.Frosting, store.Snapshot().State),
		candle:    newCandle(rng),
		photos:    newPhotoRing(rng),
	}
}

// Layout returns the static scene description.
func (a *Animator) Layout() Layout {
	return a.layout
}

// Step advances the scene to now and returns the resulting frame.
func (a *Animator) Step(now time.Time) Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.start.IsZero() {
		a.start = now
		a.last = now
	}
	dt := now.Sub(a.last)
	if dt < 0 {
		dt = 0
	}
	if dt > maxStep {
		dt = maxStep
	}
	a.last = now
	t := now.Sub(a.start).Seconds()

	snap := a.store.Snapshot()

	if snap.State == state.Assembled {
		a.autoRotation += dt.Seconds() * a.opts.AutoRotateSpeed
	}
	yaw := a.autoRotation + snap.RotationOffset

	snap = a.syncSelection(snap, yaw)

	a.particles.step(snap.State, t, a.opts.ParticleLerp)
	a.frosting.step(snap.State, a.opts.FrostingLerp)
	candle := a.candle.step(snap.State, t, a.opts.CandleLerp)
	photos := a.photos.step(snap, yaw, t, a.opts.PhotoLerp)

	frosting := FrostingFrame{Mix: a.frosting.mix, Time: t}
	if a.opts.FrostingPositions {
		frosting.Positions = a.frosting.positions(t)
	}

	a.frameID++
	return Frame{
		ID:             a.frameID,
		Time:           t,
		State:          snap.State,
		Gesture:        snap.Gesture,
		StatusText:     snap.State.StatusText(),
		Hint:           snap.Gesture.Hint(),
		Yaw:            yaw,
		RotationOffset: snap.RotationOffset,
		ActivePhoto:    snap.ActivePhoto,
		Particles:      a.particles.positions(),
		Frosting:       frosting,
		Candle:         candle,
		Photos:         photos,
	}
}

// syncSelection picks the photo nearest the viewpoint on entry to PHOTO_ZOOM.
// The pick is applied only if the store is still zoomed with no selection
// when it lands, and the store drops it on leaving PHOTO_ZOOM.
func (a *Animator) syncSelection(snap state.Snapshot, yaw float64) state.Snapshot {
	if _, selected := snap.ActiveIndex(); selected || snap.State != state.PhotoZoom || len(snap.Photos) == 0 {
		return snap
	}
	idx := SelectNearestPhoto(len(snap.Photos), yaw, Viewpoint)
	a.logger.Debug("zoom photo selected", slog.Int("index", idx), slog.Float64("yaw", yaw))
	return a.store.Dispatch(state.AutoSelectPhoto{Index: idx})
}
