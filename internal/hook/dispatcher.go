package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

// HookSource lists the enabled hooks bound to a state.
type HookSource interface {
	ListEnabledForState(state string) ([]*store.Hook, error)
}

// PluginLookup resolves plugins by name.
type PluginLookup interface {
	Get(name string) (*Plugin, error)
}

// Runner executes a single plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Dispatcher runs the hooks bound to a state each time the application
// enters that state. Each hook runs in its own goroutine.
type Dispatcher struct {
	hooks   HookSource
	plugins PluginLookup
	runner  Runner
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Close cancels in-flight hooks.
func NewDispatcher(hooks HookSource, plugins PluginLookup, runner Runner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		hooks:   hooks,
		plugins: plugins,
		runner:  runner,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnTransition is a state.Listener. It fires hooks only when the state
// itself changes. Hook loading and execution happen off the dispatching
// goroutine.
func (d *Dispatcher) OnTransition(prev, next state.Snapshot) {
	if prev.State == next.State {
		return
	}
	d.spawn(func() { d.fire(prev, next) })
}

func (d *Dispatcher) fire(prev, next state.Snapshot) {
	hooks, err := d.hooks.ListEnabledForState(string(next.State))
	if err != nil {
		d.logger.Error("failed to load hooks", slog.String("state", string(next.State)), slog.Any("error", err))
		return
	}

	for _, h := range hooks {
		h := h
		d.spawn(func() {
			if _, err := d.run(d.ctx, h, newRequest(h, prev, next)); err != nil {
				d.logger.Warn("hook failed",
					slog.String("hook", h.ID),
					slog.String("plugin", h.PluginName),
					slog.String("action", h.ActionName),
					slog.Any("error", err))
			}
		})
	}
}

// spawn starts fn unless the dispatcher is closed.
func (d *Dispatcher) spawn(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// Trigger runs h synchronously, as if its state had just been entered
// from an empty scene.
func (d *Dispatcher) Trigger(ctx context.Context, h *store.Hook) (*Response, error) {
	next := state.Initial()
	next.State = state.AppState(h.State)
	return d.run(ctx, h, newRequest(h, state.Snapshot{}, next))
}

// newRequest builds the plugin request for h entering next from prev.
func newRequest(h *store.Hook, prev, next state.Snapshot) *Request {
	req := &Request{
		Action:        h.ActionName,
		State:         h.State,
		PreviousState: string(prev.State),
		Gesture:       string(next.Gesture),
		StatusText:    next.State.StatusText(),
		Hint:          next.Gesture.Hint(),
		Photos:        len(next.Photos),
		Config:        h.Config,
	}
	if i, ok := next.ActiveIndex(); ok {
		req.ActivePhoto = &i
	}
	return req
}

func (d *Dispatcher) run(ctx context.Context, h *store.Hook, req *Request) (*Response, error) {
	plugin, err := d.plugins.Get(h.PluginName)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", h.ID, err)
	}
	if err := Validate(plugin, h.ActionName, h.Config); err != nil {
		return nil, err
	}

	resp, err := d.runner.Execute(ctx, plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("plugin %s reported failure: %s", plugin.Manifest.Name, resp.Error)
	}

	d.logger.Debug("hook ran", slog.String("hook", h.ID), slog.String("plugin", plugin.Manifest.Name), slog.String("action", h.ActionName))
	return resp, nil
}

// Wait blocks until every running hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running hooks and waits for them to exit. Transitions
// after Close are ignored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
