package app

import (
	"context"
	"log/slog"
	"time"
)

// runRender advances the animation at the configured display rate and
// publishes each frame by swapping the latest-frame pointer.
func (a *App) runRender(ctx context.Context) {
	fps := a.settings.Render.FPS
	if fps <= 0 {
		fps = 60
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	a.renderOnce(time.Now())
	a.logger.Debug("render loop started", slog.Int("fps", fps))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.renderOnce(now)
		}
	}
}

// renderOnce steps the animator. A panic in a step drops that frame.
func (a *App) renderOnce(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("render step panicked", slog.Any("panic", r))
		}
	}()

	frame := a.animator.Step(now)
	a.frame.Store(&frame)
}
