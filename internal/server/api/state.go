package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ayusman/cakewish/internal/state"
)

// StateStore is the part of the state store the handlers need.
type StateStore interface {
	Snapshot() state.Snapshot
	Dispatch(a state.Action) state.Snapshot
}

// StateHandler serves the current state snapshot.
type StateHandler struct {
	store StateStore
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(s StateStore) *StateHandler {
	return &StateHandler{store: s}
}

type stateResponse struct {
	state.Snapshot
	StatusText string `json:"status_text"`
	Hint       string `json:"hint"`
}

func newStateResponse(s state.Snapshot) stateResponse {
	if s.Photos == nil {
		s.Photos = []state.Photo{}
	}
	return stateResponse{
		Snapshot:   s,
		StatusText: s.State.StatusText(),
		Hint:       s.Gesture.Hint(),
	}
}

// ServeHTTP handles GET /api/state.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(h.store.Snapshot()))
}

// ActionHandler dispatches state actions sent over HTTP. It lets a keyboard
// or mouse front end drive the scene when no camera is available.
type ActionHandler struct {
	store StateStore
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(s StateStore) *ActionHandler {
	return &ActionHandler{store: s}
}

type actionRequest struct {
	Type    string   `json:"type"`
	Gesture string   `json:"gesture,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Delta   *float64 `json:"delta,omitempty"`
	Index   *int     `json:"index,omitempty"`
	State   string   `json:"state,omitempty"`
}

var errMissingField = errors.New("missing field")

// toAction converts the request body to a state action.
func (req actionRequest) toAction() (state.Action, error) {
	switch req.Type {
	case "set_gesture":
		g := state.Gesture(req.Gesture)
		if !g.Valid() {
			return nil, fmt.Errorf("unknown gesture %q", req.Gesture)
		}
		return state.SetGesture{Gesture: g}, nil

	case "set_hand_position":
		if req.X == nil || req.Y == nil {
			return nil, fmt.Errorf("%w: x and y", errMissingField)
		}
		pos := state.HandPosition{X: *req.X, Y: *req.Y}
		if !pos.Valid() {
			return nil, fmt.Errorf("hand position %v,%v outside [-1, 1]", *req.X, *req.Y)
		}
		return state.SetHandPosition{Position: pos}, nil

	case "add_rotation_offset":
		if req.Delta == nil {
			return nil, fmt.Errorf("%w: delta", errMissingField)
		}
		return state.AddRotationOffset{Delta: *req.Delta}, nil

	case "set_active_photo":
		if req.Index == nil {
			return state.ClearSelection(), nil
		}
		return state.Select(*req.Index), nil

	case "set_app_state":
		s := state.AppState(req.State)
		if !s.Valid() {
			return nil, fmt.Errorf("unknown state %q", req.State)
		}
		return state.SetAppState{State: s}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", req.Type)
}

// ServeHTTP handles POST /api/actions.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	action, err := req.toAction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newStateResponse(h.store.Dispatch(action)))
}
