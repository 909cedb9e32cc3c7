package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/cakewish/internal/hook"
	applog "github.com/ayusman/cakewish/internal/log"
	"github.com/ayusman/cakewish/internal/scene"
	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

type fixture struct {
	ts       *httptest.Server
	state    *state.Store
	db       *store.Store
	photoDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pluginDir := filepath.Join(tmpDir, "plugins")
	writeTestPlugin(t, pluginDir)

	plugins := hook.NewManager(pluginDir, applog.Discard())
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	st := state.NewStore()
	dispatcher := hook.NewDispatcher(db.Hooks(), plugins, hook.NewExecutor(5*time.Second), applog.Discard())
	t.Cleanup(dispatcher.Close)

	opts := scene.DefaultOptions()
	opts.Particles = 10
	opts.Frosting = 20
	animator := scene.NewAnimator(st, opts, applog.Discard())

	photoDir := filepath.Join(tmpDir, "photos")
	srv := New(Config{
		PhotoDir: photoDir,
		State:    st,
		Store:    db,
		Plugins:  plugins,
		Hooks:    dispatcher,
		Scene:    animator,
		Logger:   applog.Discard(),
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, state: st, db: db, photoDir: photoDir}
}

// writeTestPlugin installs a shell plugin that echoes its request back.
func writeTestPlugin(t *testing.T, dir string) {
	t.Helper()
	pdir := filepath.Join(dir, "echo")
	if err := os.MkdirAll(pdir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"name": "echo",
		"version": "1.0.0",
		"executable": "echo.sh",
		"actions": ["notify"],
		"configSchema": {
			"type": "object",
			"properties": {"message": {"type": "string"}},
			"required": ["message"]
		}
	}`
	if err := os.WriteFile(filepath.Join(pdir, hook.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\nINPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":$INPUT}\"\n"
	if err := os.WriteFile(filepath.Join(pdir, "echo.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	return resp
}

func TestAPI_HookWorkflow(t *testing.T) {
	f := newFixture(t)
	client := f.ts.Client()

	// 1. Plugins are listed with their manifests
	resp, _ := client.Get(f.ts.URL + "/api/plugins")
	var plugins struct {
		Plugins []hook.Manifest `json:"plugins"`
	}
	json.NewDecoder(resp.Body).Decode(&plugins)
	resp.Body.Close()
	if len(plugins.Plugins) != 1 || plugins.Plugins[0].Name != "echo" {
		t.Fatalf("unexpected plugins %+v", plugins.Plugins)
	}

	// 2. Invalid hooks are rejected
	for _, body := range []string{
		`{"state":"MELTED","plugin_name":"echo","action_name":"notify","config":{"message":"hi"}}`,
		`{"state":"SCATTERED","plugin_name":"ghost","action_name":"notify","config":{"message":"hi"}}`,
		`{"state":"SCATTERED","plugin_name":"echo","action_name":"explode","config":{"message":"hi"}}`,
		`{"state":"SCATTERED","plugin_name":"echo","action_name":"notify","config":{}}`,
		`{"plugin_name":"echo","action_name":"notify"}`,
	} {
		resp := doJSON(t, client, http.MethodPost, f.ts.URL+"/api/hooks", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
	}

	// 3. Create a valid hook
	resp = doJSON(t, client, http.MethodPost, f.ts.URL+"/api/hooks",
		`{"state":"SCATTERED","plugin_name":"echo","action_name":"notify","config":{"message":"Make a wish"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/hooks status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		Enabled bool   `json:"enabled"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.ID == "" || created.State != "SCATTERED" || !created.Enabled {
		t.Fatalf("unexpected created hook %+v", created)
	}

	// 4. List hooks
	resp, _ = client.Get(f.ts.URL + "/api/hooks")
	var listed struct {
		Hooks []struct {
			ID string `json:"id"`
		} `json:"hooks"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Hooks) != 1 || listed.Hooks[0].ID != created.ID {
		t.Fatalf("unexpected hook list %+v", listed.Hooks)
	}

	// 5. Run it on demand
	if runtime.GOOS != "windows" {
		resp = doJSON(t, client, http.MethodPost, f.ts.URL+"/api/hooks/"+created.ID+"/test", "")
		var tested struct {
			Success bool `json:"success"`
			Data    struct {
				Action string         `json:"action"`
				Config map[string]any `json:"config"`
			} `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&tested)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !tested.Success {
			t.Fatalf("test hook status = %d success = %v", resp.StatusCode, tested.Success)
		}
		if tested.Data.Action != "notify" || tested.Data.Config["message"] != "Make a wish" {
			t.Errorf("unexpected echoed request %+v", tested.Data)
		}
	}

	// 6. Disable it
	resp = doJSON(t, client, http.MethodPut, f.ts.URL+"/api/hooks/"+created.ID, `{"enabled":false}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	enabled, err := f.db.Hooks().ListEnabledForState("SCATTERED")
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 0 {
		t.Errorf("expected disabled hook to be excluded, got %d", len(enabled))
	}

	// 7. Delete it
	resp = doJSON(t, client, http.MethodDelete, f.ts.URL+"/api/hooks/"+created.ID, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp, _ = client.Get(f.ts.URL + "/api/hooks/" + created.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, client *http.Client, url, field string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "photo.bin")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := client.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

func TestAPI_PhotoUpload(t *testing.T) {
	f := newFixture(t)
	client := f.ts.Client()

	resp := upload(t, client, f.ts.URL+"/api/photos", "photo", pngBytes(t, 40, 20))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID          string  `json:"id"`
		URL         string  `json:"url"`
		AspectRatio float64 `json:"aspect_ratio"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.AspectRatio != 2 {
		t.Errorf("aspect ratio = %v, want 2", created.AspectRatio)
	}
	if filepath.Ext(created.URL) != ".png" {
		t.Errorf("expected .png url, got %q", created.URL)
	}

	snap := f.state.Snapshot()
	if len(snap.Photos) != 1 || snap.Photos[0].ID != created.ID {
		t.Fatalf("expected photo in state, got %+v", snap.Photos)
	}

	// The stored file is served back
	resp, _ = client.Get(f.ts.URL + created.URL)
	served, _ := readAll(resp)
	if resp.StatusCode != http.StatusOK || len(served) == 0 {
		t.Errorf("GET %s status = %d, %d bytes", created.URL, resp.StatusCode, len(served))
	}

	// Listing
	resp, _ = client.Get(f.ts.URL + "/api/photos")
	var listed struct {
		Photos []struct {
			ID string `json:"id"`
		} `json:"photos"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Photos) != 1 {
		t.Errorf("expected 1 listed photo, got %d", len(listed.Photos))
	}

	// Non-images are rejected
	resp = upload(t, client, f.ts.URL+"/api/photos", "photo", []byte("just some text"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("text upload status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}

	// Missing field
	resp = upload(t, client, f.ts.URL+"/api/photos", "image", pngBytes(t, 4, 4))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing field status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	if n := len(f.state.Snapshot().Photos); n != 1 {
		t.Errorf("rejected uploads changed state: %d photos", n)
	}
}

func readAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	return buf.Bytes(), err
}

func TestAPI_Transitions(t *testing.T) {
	f := newFixture(t)
	for _, tr := range []*store.Transition{
		{FromState: "ASSEMBLED", ToState: "SCATTERED", Gesture: "OPEN_PALM"},
		{FromState: "SCATTERED", ToState: "PHOTO_ZOOM", Gesture: "PINCH"},
		{FromState: "PHOTO_ZOOM", ToState: "ASSEMBLED", Gesture: "FIST"},
	} {
		if err := f.db.Transitions().Record(tr); err != nil {
			t.Fatal(err)
		}
	}

	resp, _ := f.ts.Client().Get(f.ts.URL + "/api/transitions?limit=2")
	var listed struct {
		Transitions []struct {
			ToState string `json:"to_state"`
		} `json:"transitions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(listed.Transitions))
	}
	if listed.Transitions[0].ToState != "ASSEMBLED" {
		t.Errorf("expected newest first, got %q", listed.Transitions[0].ToState)
	}

	resp, _ = f.ts.Client().Get(f.ts.URL + "/api/transitions?limit=abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestAPI_Scene(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.ts.Client().Get(f.ts.URL + "/api/scene")
	var layout scene.Layout
	json.NewDecoder(resp.Body).Decode(&layout)
	resp.Body.Close()

	if len(layout.Particles) != 10 {
		t.Errorf("expected 10 particles, got %d", len(layout.Particles))
	}
	if len(layout.Frosting) != 20 {
		t.Errorf("expected 20 frosting particles, got %d", len(layout.Frosting))
	}
}

func TestServer_ServeShutsDown(t *testing.T) {
	s := New(Config{Frames: &frameSlot{}, Logger: applog.Discard()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
