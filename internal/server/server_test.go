package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/cakewish/internal/state"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>Happy Birthday!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}

func TestServer_State(t *testing.T) {
	st := state.NewStore()
	s := New(Config{State: st})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		State      string        `json:"state"`
		Gesture    string        `json:"gesture"`
		StatusText string        `json:"status_text"`
		Photos     []state.Photo `json:"photos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.State != "ASSEMBLED" {
		t.Errorf("expected state ASSEMBLED, got %q", response.State)
	}
	if response.StatusText != "Happy Birthday!" {
		t.Errorf("expected status text 'Happy Birthday!', got %q", response.StatusText)
	}
	if response.Photos == nil {
		t.Error("expected photos to encode as an empty list")
	}
}

func TestServer_Actions(t *testing.T) {
	st := state.NewStore()
	s := New(Config{State: st})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantState  state.AppState
	}{
		{"open palm scatters", `{"type":"set_gesture","gesture":"OPEN_PALM"}`, http.StatusOK, state.Scattered},
		{"pinch zooms from scattered", `{"type":"set_gesture","gesture":"PINCH"}`, http.StatusOK, state.PhotoZoom},
		{"fist assembles", `{"type":"set_gesture","gesture":"FIST"}`, http.StatusOK, state.Assembled},
		{"direct state", `{"type":"set_app_state","state":"SCATTERED"}`, http.StatusOK, state.Scattered},
		{"unknown gesture", `{"type":"set_gesture","gesture":"WAVE"}`, http.StatusBadRequest, state.Scattered},
		{"unknown state", `{"type":"set_app_state","state":"MELTED"}`, http.StatusBadRequest, state.Scattered},
		{"unknown type", `{"type":"explode"}`, http.StatusBadRequest, state.Scattered},
		{"missing delta", `{"type":"add_rotation_offset"}`, http.StatusBadRequest, state.Scattered},
		{"invalid json", `{`, http.StatusBadRequest, state.Scattered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := st.Snapshot().State; got != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, got)
			}
		})
	}

	t.Run("hand position and rotation", func(t *testing.T) {
		if rec := post(`{"type":"set_hand_position","x":0.5,"y":-0.25}`); rec.Code != http.StatusOK {
			t.Fatalf("set_hand_position status %d", rec.Code)
		}
		if rec := post(`{"type":"add_rotation_offset","delta":0.1}`); rec.Code != http.StatusOK {
			t.Fatalf("add_rotation_offset status %d", rec.Code)
		}
		snap := st.Snapshot()
		if snap.Hand.X != 0.5 || snap.Hand.Y != -0.25 {
			t.Errorf("unexpected hand position %+v", snap.Hand)
		}
		if snap.RotationOffset != 0.1 {
			t.Errorf("expected rotation offset 0.1, got %v", snap.RotationOffset)
		}
	})

	t.Run("hand position out of range", func(t *testing.T) {
		for _, body := range []string{
			`{"type":"set_hand_position","x":1.5,"y":0}`,
			`{"type":"set_hand_position","x":0,"y":-1.01}`,
		} {
			if rec := post(body); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
			}
		}
		if snap := st.Snapshot(); snap.Hand.X != 0.5 || snap.Hand.Y != -0.25 {
			t.Errorf("rejected position changed the store: %+v", snap.Hand)
		}
	})

	t.Run("only allows POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/actions", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
