package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/cakewish/internal/hook"
	"github.com/ayusman/cakewish/internal/state"
	"github.com/ayusman/cakewish/internal/store"
)

// PluginLookup resolves plugins by name.
type PluginLookup interface {
	Get(name string) (*hook.Plugin, error)
}

// HookTrigger runs a hook on demand.
type HookTrigger interface {
	Trigger(ctx context.Context, h *store.Hook) (*hook.Response, error)
}

// HookHandler handles HTTP requests for hook resources.
type HookHandler struct {
	hooks   *store.HookRepository
	plugins PluginLookup
	trigger HookTrigger
}

// NewHookHandler creates a new HookHandler. trigger may be nil, which
// disables POST /api/hooks/{id}/test.
func NewHookHandler(hooks *store.HookRepository, plugins PluginLookup, trigger HookTrigger) *HookHandler {
	return &HookHandler{hooks: hooks, plugins: plugins, trigger: trigger}
}

// ServeHTTP routes /api/hooks, /api/hooks/{id} and /api/hooks/{id}/test.
func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := itemPath(r.URL.Path, "/api/hooks")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 1:
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case 2:
		if parts[1] != "test" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.test(w, r, parts[0])

	default:
		http.NotFound(w, r)
	}
}

type createHookRequest struct {
	State      string          `json:"state"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateHookRequest struct {
	State      string          `json:"state"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type hookResponse struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listHooksResponse struct {
	Hooks []hookResponse `json:"hooks"`
}

func toHookResponse(hk *store.Hook) hookResponse {
	config := hk.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return hookResponse{
		ID:         hk.ID,
		State:      hk.State,
		PluginName: hk.PluginName,
		ActionName: hk.ActionName,
		Config:     config,
		Enabled:    hk.Enabled,
		CreatedAt:  hk.CreatedAt.Format(timeLayout),
	}
}

// validate checks the hook against its state and plugin manifest and
// writes a 400 response when it does not fit.
func (h *HookHandler) validate(w http.ResponseWriter, hk *store.Hook) bool {
	if !state.AppState(hk.State).Valid() {
		writeError(w, http.StatusBadRequest, "Unknown state")
		return false
	}

	plugin, err := h.plugins.Get(hk.PluginName)
	if err != nil {
		if errors.Is(err, hook.ErrPluginNotFound) {
			writeError(w, http.StatusBadRequest, "Plugin not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up plugin")
		return false
	}

	if err := hook.Validate(plugin, hk.ActionName, hk.Config); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// list handles GET /api/hooks and returns all hooks.
func (h *HookHandler) list(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.hooks.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hooks")
		return
	}

	response := listHooksResponse{Hooks: make([]hookResponse, 0, len(hooks))}
	for _, hk := range hooks {
		response.Hooks = append(response.Hooks, toHookResponse(hk))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/hooks/{id}.
func (h *HookHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	hk, err := h.hooks.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}

	writeJSON(w, http.StatusOK, toHookResponse(hk))
}

// create handles POST /api/hooks.
func (h *HookHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.State == "" {
		writeError(w, http.StatusBadRequest, "state is required")
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}

	hk := &store.Hook{
		State:      req.State,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    true,
	}
	if req.Enabled != nil {
		hk.Enabled = *req.Enabled
	}
	if !h.validate(w, hk) {
		return
	}

	if err := h.hooks.Create(hk); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create hook")
		return
	}

	writeJSON(w, http.StatusCreated, toHookResponse(hk))
}

// update handles PUT /api/hooks/{id}. Omitted fields keep their values.
func (h *HookHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	hk, err := h.hooks.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}

	var req updateHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.State != "" {
		hk.State = req.State
	}
	if req.PluginName != "" {
		hk.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		hk.ActionName = req.ActionName
	}
	if req.Config != nil {
		hk.Config = req.Config
	}
	if req.Enabled != nil {
		hk.Enabled = *req.Enabled
	}
	if !h.validate(w, hk) {
		return
	}

	if err := h.hooks.Update(hk); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update hook")
		return
	}

	writeJSON(w, http.StatusOK, toHookResponse(hk))
}

// delete handles DELETE /api/hooks/{id}.
func (h *HookHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.hooks.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete hook")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type testHookResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// test handles POST /api/hooks/{id}/test and runs the hook immediately.
func (h *HookHandler) test(w http.ResponseWriter, r *http.Request, id string) {
	if h.trigger == nil {
		writeError(w, http.StatusServiceUnavailable, "Hook execution unavailable")
		return
	}

	hk, err := h.hooks.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}

	resp, err := h.trigger.Trigger(r.Context(), hk)
	if err != nil {
		out := testHookResponse{Success: false, Error: err.Error()}
		if resp != nil {
			out.Data = resp.Data
		}
		writeJSON(w, http.StatusBadGateway, out)
		return
	}

	writeJSON(w, http.StatusOK, testHookResponse{Success: true, Data: resp.Data})
}
