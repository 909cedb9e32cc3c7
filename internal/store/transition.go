package store

import (
	"database/sql"
	"time"
)

// DefaultTransitionLimit is used by List when limit is not positive.
const DefaultTransitionLimit = 50

// Transition records one application state change.
type Transition struct {
	ID        int64     `json:"id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Gesture   string    `json:"gesture"`
	CreatedAt time.Time `json:"created_at"`
}

// TransitionRepository stores state history.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Record appends a transition and fills in its ID.
func (r *TransitionRepository) Record(t *Transition) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO transitions (from_state, to_state, gesture, created_at) VALUES (?, ?, ?, ?)`,
		t.FromState, t.ToState, t.Gesture, t.CreatedAt,
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// List returns up to limit transitions, newest first.
func (r *TransitionRepository) List(limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = DefaultTransitionLimit
	}

	rows, err := r.db.Query(
		`SELECT id, from_state, to_state, gesture, created_at FROM transitions
		 ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := []*Transition{}
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.ID, &t.FromState, &t.ToState, &t.Gesture, &t.CreatedAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transitions, nil
}

// Prune deletes all but the newest keep transitions and returns how many
// rows were removed.
func (r *TransitionRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM transitions WHERE id NOT IN (SELECT id FROM transitions ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
