package api

import (
	"net/http"

	"github.com/ayusman/cakewish/internal/scene"
)

// LayoutSource provides the static scene layout.
type LayoutSource interface {
	Layout() scene.Layout
}

// SceneHandler serves the static particle layout. Per-frame data is sent
// over the frames websocket; the layout only changes on restart.
type SceneHandler struct {
	source LayoutSource
}

// NewSceneHandler creates a new SceneHandler.
func NewSceneHandler(s LayoutSource) *SceneHandler {
	return &SceneHandler{source: s}
}

// ServeHTTP handles GET /api/scene.
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, h.source.Layout())
}
