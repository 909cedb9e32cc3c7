package tray

import (
	"testing"

	"github.com/ayusman/cakewish/internal/state"
)

func TestNew(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Error("expected tray to start enabled")
	}
	status, hint := tr.Status()
	if status != "Happy Birthday!" {
		t.Errorf("status = %q, want 'Happy Birthday!'", status)
	}
	if hint != "Position hand in camera..." {
		t.Errorf("hint = %q", hint)
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected enabled after two toggles")
	}
}

func TestTray_Open(t *testing.T) {
	tr := New()
	tr.handleOpen() // no callback set

	called := false
	tr.OnOpen(func() { called = true })
	tr.handleOpen()
	if !called {
		t.Error("expected open callback")
	}
}

func TestTray_OnStateChange(t *testing.T) {
	tr := New()
	st := state.NewStore()
	st.Subscribe(tr.OnStateChange)

	st.Dispatch(state.SetGesture{Gesture: state.GestureOpenPalm})
	status, hint := tr.Status()
	if status != "Make a wish..." {
		t.Errorf("status = %q, want 'Make a wish...'", status)
	}
	if hint != "Open Palm: Scattering" {
		t.Errorf("hint = %q, want 'Open Palm: Scattering'", hint)
	}

	st.Dispatch(state.AddPhoto{Photo: state.NewPhoto("/photos/a.jpg", 1)})
	st.Dispatch(state.AddPhoto{Photo: state.NewPhoto("/photos/b.jpg", 1)})
	st.Dispatch(state.SetGesture{Gesture: state.GesturePinch})
	st.Dispatch(state.Select(1))

	status, _ = tr.Status()
	if status != "Memory Lane · photo 2/2" {
		t.Errorf("status = %q, want 'Memory Lane · photo 2/2'", status)
	}
}

func TestToggleLabel(t *testing.T) {
	if toggleLabel(true) == toggleLabel(false) {
		t.Error("expected distinct labels")
	}
}
