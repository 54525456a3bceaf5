package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

// ListPhotos returns all photos ordered by category and gallery position
func (s *Store) ListPhotos(ctx context.Context) ([]*storage.Photo, error) {
	query := `
		SELECT id, category_id, photo_order, path
		FROM photos
		ORDER BY category_id, photo_order
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*storage.Photo
	for rows.Next() {
		var p storage.Photo
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Order, &p.Path); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &p)
	}
	return photos, rows.Err()
}

// GetPhoto loads a photo
func (s *Store) GetPhoto(ctx context.Context, id int64) (*storage.Photo, error) {
	var p storage.Photo
	err := s.db.QueryRowContext(ctx,
		"SELECT id, category_id, photo_order, path FROM photos WHERE id = $1", id).
		Scan(&p.ID, &p.CategoryID, &p.Order, &p.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get photo %d: %w", id, err)
	}
	return &p, nil
}

// CreatePhoto inserts a photo and fills in the generated ID
func (s *Store) CreatePhoto(ctx context.Context, photo *storage.Photo) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO photos (category_id, photo_order, path) VALUES ($1, $2, $3) RETURNING id",
		photo.CategoryID, photo.Order, photo.Path).Scan(&photo.ID)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// UpdatePhoto updates a photo's category, order and path
func (s *Store) UpdatePhoto(ctx context.Context, photo *storage.Photo) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE photos SET category_id = $2, photo_order = $3, path = $4 WHERE id = $1",
		photo.ID, photo.CategoryID, photo.Order, photo.Path)
	if err != nil {
		return fmt.Errorf("failed to update photo %d: %w", photo.ID, err)
	}
	return requireRow(result)
}

// DeletePhoto removes a photo row
func (s *Store) DeletePhoto(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete photo %d: %w", id, err)
	}
	return requireRow(result)
}
