package store

import (
	"database/sql"
	"errors"
	"time"
)

// Photo is an uploaded image shown on the ring.
type Photo struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	FilePath    string    `json:"-"`
	AspectRatio float64   `json:"aspect_ratio"`
	CreatedAt   time.Time `json:"created_at"`
}

// PhotoRepository provides CRUD operations for photos.
type PhotoRepository struct {
	db *sql.DB
}

// Photos returns the photo repository for this store.
func (s *Store) Photos() *PhotoRepository {
	return &PhotoRepository{db: s.db}
}

// Create inserts a new photo.
func (r *PhotoRepository) Create(p *Photo) error {
	p.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO photos (id, url, file_path, aspect_ratio, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.URL, p.FilePath, p.AspectRatio, p.CreatedAt,
	)
	return err
}

// GetByID retrieves a photo by its ID.
func (r *PhotoRepository) GetByID(id string) (*Photo, error) {
	p := &Photo{}
	err := r.db.QueryRow(
		`SELECT id, url, file_path, aspect_ratio, created_at FROM photos WHERE id = ?`, id,
	).Scan(&p.ID, &p.URL, &p.FilePath, &p.AspectRatio, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all photos in upload order. Ring slots follow this order.
func (r *PhotoRepository) List() ([]*Photo, error) {
	rows, err := r.db.Query(
		`SELECT id, url, file_path, aspect_ratio, created_at FROM photos ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []*Photo{}
	for rows.Next() {
		p := &Photo{}
		if err := rows.Scan(&p.ID, &p.URL, &p.FilePath, &p.AspectRatio, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}

// Count returns the number of stored photos.
func (r *PhotoRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM photos`).Scan(&n)
	return n, err
}

// Delete removes a photo by its ID.
func (r *PhotoRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
