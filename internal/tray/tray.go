// Package tray provides a system tray menu for cakewish.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/cakewish/internal/state"
)

const (
	labelEnabled  = "● Camera on"
	labelDisabled = "○ Camera paused"
)

// Tray shows the current status text and gesture hint and lets the user
// pause perception, open the viewer or quit.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	status   string
	hint     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuHint   *systray.MenuItem
	menuToggle *systray.MenuItem
}

// New creates a new Tray showing the initial state.
func New() *Tray {
	initial := state.Initial()
	return &Tray{
		enabled: true,
		status:  statusLine(initial),
		hint:    initial.Gesture.Hint(),
	}
}

// OnToggle sets the callback function to be called when perception is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called and must run on the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("cakewish")
	systray.SetTooltip("cakewish")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current scene")
	t.menuStatus.Disable()
	t.menuHint = systray.AddMenuItem(t.hint, "Gesture hint")
	t.menuHint.Disable()
	systray.AddSeparator()

	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Pause or resume gesture recognition")
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the cake in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit cakewish")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleLabel(enabled bool) string {
	if enabled {
		return labelEnabled
	}
	return labelDisabled
}

// statusLine is the status text with the photo in focus, if any.
func statusLine(s state.Snapshot) string {
	line := s.State.StatusText()
	if i, ok := s.ActiveIndex(); ok {
		line += fmt.Sprintf(" · photo %d/%d", i+1, len(s.Photos))
	}
	return line
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// OnStateChange is a state.Listener that refreshes the status and hint lines.
func (t *Tray) OnStateChange(_, next state.Snapshot) {
	status := statusLine(next)
	hint := next.Gesture.Hint()

	t.mu.Lock()
	defer t.mu.Unlock()

	if status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(status)
		}
	}
	if hint != t.hint {
		t.hint = hint
		if t.menuHint != nil {
			t.menuHint.SetTitle(hint)
		}
	}
}

// Status returns the status and hint lines currently shown.
func (t *Tray) Status() (status, hint string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.hint
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
