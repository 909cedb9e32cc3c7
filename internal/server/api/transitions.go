package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/cakewish/internal/store"
)

// maxTransitionLimit caps the limit query parameter.
const maxTransitionLimit = 1000

// TransitionHandler serves the state transition history.
type TransitionHandler struct {
	transitions *store.TransitionRepository
}

// NewTransitionHandler creates a new TransitionHandler.
func NewTransitionHandler(t *store.TransitionRepository) *TransitionHandler {
	return &TransitionHandler{transitions: t}
}

type transitionResponse struct {
	ID        int64  `json:"id"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Gesture   string `json:"gesture"`
	CreatedAt string `json:"created_at"`
}

type listTransitionsResponse struct {
	Transitions []transitionResponse `json:"transitions"`
}

// ServeHTTP handles GET /api/transitions?limit=N, newest first.
func (h *TransitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := store.DefaultTransitionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTransitionLimit)
	}

	transitions, err := h.transitions.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transitions")
		return
	}

	response := listTransitionsResponse{Transitions: make([]transitionResponse, 0, len(transitions))}
	for _, t := range transitions {
		response.Transitions = append(response.Transitions, transitionResponse{
			ID:        t.ID,
			FromState: t.FromState,
			ToState:   t.ToState,
			Gesture:   t.Gesture,
			CreatedAt: t.CreatedAt.Format(timeLayout),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
