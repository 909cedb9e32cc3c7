package api

import (
	"net/http"

	"github.com/ayusman/cakewish/internal/hook"
)

// PluginCatalog lists and rescans installed plugins.
type PluginCatalog interface {
	List() []*hook.Plugin
	Discover() error
}

// PluginHandler serves the installed plugin list.
type PluginHandler struct {
	catalog PluginCatalog
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(c PluginCatalog) *PluginHandler {
	return &PluginHandler{catalog: c}
}

type listPluginsResponse struct {
	Plugins []hook.Manifest `json:"plugins"`
}

// ServeHTTP handles GET /api/plugins and POST /api/plugins (rescan).
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.catalog.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to scan plugins")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.catalog.List()
	response := listPluginsResponse{Plugins: make([]hook.Manifest, 0, len(plugins))}
	for _, p := range plugins {
		response.Plugins = append(response.Plugins, p.Manifest)
	}
	writeJSON(w, http.StatusOK, response)
}
