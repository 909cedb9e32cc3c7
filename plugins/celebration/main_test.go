package main

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", `"hello"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDefaultMessage(t *testing.T) {
	second := 1
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"assembled", Request{State: "ASSEMBLED"}, "Happy Birthday!"},
		{"scattered", Request{State: "SCATTERED"}, "Make a wish..."},
		{"zoom", Request{State: "PHOTO_ZOOM"}, "Memory Lane"},
		{"unknown state", Request{}, "Happy Birthday!"},
		{"status text wins", Request{State: "SCATTERED", StatusText: "Blow!"}, "Blow!"},
		{"active photo", Request{State: "PHOTO_ZOOM", StatusText: "Memory Lane", Photos: 3, ActivePhoto: &second}, "Memory Lane, photo 2 of 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultMessage(tt.req); got != tt.want {
				t.Errorf("defaultMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVolumeStep(t *testing.T) {
	if got := volumeStep(Config{}); got != "10" {
		t.Errorf("default step = %s, want 10", got)
	}
	if got := volumeStep(Config{Step: 25}); got != "25" {
		t.Errorf("step = %s, want 25", got)
	}
}

func TestActionHandlersMatchManifest(t *testing.T) {
	for _, action := range []string{"notify", "say", "volume-up", "volume-down", "media-play-pause"} {
		if _, ok := actionHandlers[action]; !ok {
			t.Errorf("missing handler for %q", action)
		}
	}
}
