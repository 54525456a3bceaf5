package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

// ListTags returns all tags
func (s *Store) ListTags(ctx context.Context) ([]*storage.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*storage.Tag
	for rows.Next() {
		var t storage.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// GetTag loads a tag
func (s *Store) GetTag(ctx context.Context, id int64) (*storage.Tag, error) {
	var t storage.Tag
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE id = $1", id).
		Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get tag %d: %w", id, err)
	}
	return &t, nil
}

// CreateTag inserts a tag and fills in the generated ID
func (s *Store) CreateTag(ctx context.Context, tag *storage.Tag) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO tags (name) VALUES ($1) RETURNING id", tag.Name).Scan(&tag.ID)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// UpdateTag renames a tag
func (s *Store) UpdateTag(ctx context.Context, tag *storage.Tag) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tags SET name = $2 WHERE id = $1", tag.ID, tag.Name)
	if err != nil {
		return fmt.Errorf("failed to update tag %d: %w", tag.ID, err)
	}
	return requireRow(result)
}

// DeleteTag removes a tag and its category links
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag %d: %w", id, err)
	}
	return requireRow(result)
}
