package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

// historyKeep bounds the transitions table.
const historyKeep = 1000

// restoreSnapshot builds the starting snapshot from saved photos and the
// saved rotation offset. Read failures are logged and start fresh.
func restoreSnapshot(db *store.Store, logger *slog.Logger) state.Snapshot {
	snap := state.Initial()

	photos, err := db.Photos().List()
	if err != nil {
		logger.Warn("failed to load photos", slog.Any("error", err))
	}
	for _, p := range photos {
		snap.Photos = append(snap.Photos, state.Photo{
			ID:          p.ID,
			URL:         p.URL,
			AspectRatio: p.AspectRatio,
		})
	}

	offset, err := db.Settings().GetFloat(store.SettingRotationOffset)
	switch {
	case err == nil:
		snap.RotationOffset = offset
	case !errors.Is(err, store.ErrNotFound):
		logger.Warn("failed to load rotation offset", slog.Any("error", err))
	}

	if n, err := db.Transitions().Prune(historyKeep); err != nil {
		logger.Warn("failed to prune history", slog.Any("error", err))
	} else if n > 0 {
		logger.Debug("pruned history", slog.Int64("removed", n))
	}

	logger.Info("state restored",
		slog.Int("photos", len(snap.Photos)),
		slog.Float64("rotation_offset", snap.RotationOffset))
	return snap
}

// saveSnapshot persists what should survive a restart.
func saveSnapshot(db *store.Store, snap state.Snapshot, logger *slog.Logger) {
	if err := db.Settings().SetFloat(store.SettingRotationOffset, snap.RotationOffset); err != nil {
		logger.Warn("failed to save rotation offset", slog.Any("error", err))
	}
}

// transitionRecorder writes state changes to the history table. The
// listener only enqueues; writes happen on the Run goroutine.
type transitionRecorder struct {
	repo   *store.TransitionRepository
	queue  chan store.Transition
	logger *slog.Logger
}

func newTransitionRecorder(repo *store.TransitionRepository, logger *slog.Logger) *transitionRecorder {
	return &transitionRecorder{
		repo:   repo,
		queue:  make(chan store.Transition, 64),
		logger: logger,
	}
}

// OnTransition is a state.Listener.
func (r *transitionRecorder) OnTransition(prev, next state.Snapshot) {
	if prev.State == next.State {
		return
	}
	t := store.Transition{
		FromState: string(prev.State),
		ToState:   string(next.State),
		Gesture:   string(next.Gesture),
		CreatedAt: time.Now(),
	}
	select {
	case r.queue <- t:
	default:
		r.logger.Warn("history queue full, dropping transition",
			slog.String("from", t.FromState), slog.String("to", t.ToState))
	}
}

// Run writes queued transitions until ctx is done, then drains the queue.
func (r *transitionRecorder) Run(ctx context.Context) {
	for {
		select {
		case t := <-r.queue:
			r.write(t)
		case <-ctx.Done():
			for {
				select {
				case t := <-r.queue:
					r.write(t)
				default:
					return
				}
			}
		}
	}
}

func (r *transitionRecorder) write(t store.Transition) {
	if err := r.repo.Record(&t); err != nil {
		r.logger.Warn("failed to record transition", slog.Any("error", err))
	}
}
