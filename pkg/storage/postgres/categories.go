package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hotelier/backoffice/pkg/storage"
)

const categoryColumns = `id, name, description, price, prepayment_percent, refund_percent,
	main_photo_path, rooms_count, floors, beds, square, is_hidden, date_created, date_deleted`

// categorySortColumns whitelists sortable columns; anything else falls back
// to id
var categorySortColumns = map[string]string{
	"id":     "id",
	"name":   "name",
	"price":  "price",
	"beds":   "beds",
	"floors": "floors",
	"square": "square",
	"rooms":  "rooms_count",
}

func scanCategory(row interface{ Scan(...interface{}) error }) (*storage.Category, error) {
	var c storage.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Price, &c.PrepaymentPercent, &c.RefundPercent,
		&c.MainPhotoPath, &c.RoomsCount, &c.Floors, &c.Beds, &c.Square, &c.IsHidden,
		&c.CreatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FilterCategories returns a page of categories matching the filter plus the
// total match count
func (s *Store) FilterCategories(ctx context.Context, filter storage.CategoryFilter) ([]*storage.Category, int, error) {
	where, args := buildCategoryWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM categories " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	sortColumn, ok := categorySortColumns[filter.SortBy]
	if !ok {
		sortColumn = "id"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := fmt.Sprintf(
		"SELECT %s FROM categories %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		categoryColumns, where, sortColumn, direction, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to filter categories: %w", err)
	}
	defer rows.Close()

	var categories []*storage.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

// buildCategoryWhere assembles the WHERE clause for FilterCategories
func buildCategoryWhere(filter storage.CategoryFilter) (string, []interface{}) {
	clauses := []string{"date_deleted IS NULL"}
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !filter.ShowHidden {
		clauses = append(clauses, "is_hidden = FALSE")
	}
	if filter.ID != nil {
		add("id = $%d", *filter.ID)
	}
	if filter.Name != nil {
		add("name ILIKE '%%' || $%d || '%%'", *filter.Name)
	}
	if filter.BedsFrom != nil {
		add("beds >= $%d", *filter.BedsFrom)
	}
	if filter.BedsUntil != nil {
		add("beds <= $%d", *filter.BedsUntil)
	}
	if filter.FloorsFrom != nil {
		add("floors >= $%d", *filter.FloorsFrom)
	}
	if filter.FloorsUntil != nil {
		add("floors <= $%d", *filter.FloorsUntil)
	}
	if filter.SquareFrom != nil {
		add("square >= $%d", *filter.SquareFrom)
	}
	if filter.SquareUntil != nil {
		add("square <= $%d", *filter.SquareUntil)
	}
	if filter.PriceFrom != nil {
		add("price >= $%d", *filter.PriceFrom)
	}
	if filter.PriceUntil != nil {
		add("price <= $%d", *filter.PriceUntil)
	}
	if filter.RoomsFrom != nil {
		add("rooms_count >= $%d", *filter.RoomsFrom)
	}
	if filter.RoomsUntil != nil {
		add("rooms_count <= $%d", *filter.RoomsUntil)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// GetCategory loads a live category
func (s *Store) GetCategory(ctx context.Context, id int64) (*storage.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories WHERE id = $1 AND date_deleted IS NULL", categoryColumns)

	c, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return c, nil
}

// CreateCategory inserts a category and fills in the generated ID
func (s *Store) CreateCategory(ctx context.Context, c *storage.Category) error {
	query := `
		INSERT INTO categories (name, description, price, prepayment_percent, refund_percent,
			main_photo_path, rooms_count, floors, beds, square, is_hidden)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, date_created
	`

	err := s.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.Price, c.PrepaymentPercent, c.RefundPercent,
		c.MainPhotoPath, c.RoomsCount, c.Floors, c.Beds, c.Square, c.IsHidden,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// UpdateCategory updates every mutable column of a category
func (s *Store) UpdateCategory(ctx context.Context, c *storage.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, price = $4, prepayment_percent = $5,
			refund_percent = $6, main_photo_path = $7, rooms_count = $8, floors = $9,
			beds = $10, square = $11, is_hidden = $12
		WHERE id = $1 AND date_deleted IS NULL
	`

	result, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, c.Price, c.PrepaymentPercent, c.RefundPercent,
		c.MainPhotoPath, c.RoomsCount, c.Floors, c.Beds, c.Square, c.IsHidden,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", c.ID, err)
	}
	return requireRow(result)
}

// DeleteCategory soft deletes a category
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE categories SET date_deleted = NOW() WHERE id = $1 AND date_deleted IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return requireRow(result)
}

// FamiliarCategories returns visible live categories sharing at least one tag
// with the given category
func (s *Store) FamiliarCategories(ctx context.Context, id int64) ([]*storage.Category, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM categories c
		JOIN category_tags ct ON ct.category_id = c.id
		WHERE ct.tag_id IN (SELECT tag_id FROM category_tags WHERE category_id = $1)
			AND c.id <> $1 AND c.date_deleted IS NULL AND c.is_hidden = FALSE
		ORDER BY c.id
	`, prefixColumns("c", categoryColumns))

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list familiar categories of %d: %w", id, err)
	}
	defer rows.Close()

	var categories []*storage.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// TagsOfCategory returns the tags attached to a category
func (s *Store) TagsOfCategory(ctx context.Context, id int64) ([]storage.Tag, error) {
	query := `
		SELECT t.id, t.name
		FROM tags t
		JOIN category_tags ct ON ct.tag_id = t.id
		WHERE ct.category_id = $1
		ORDER BY t.id
	`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of category %d: %w", id, err)
	}
	defer rows.Close()

	var tags []storage.Tag
	for rows.Next() {
		var t storage.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AddTagToCategory links a tag to a category; relinking is a no-op
func (s *Store) AddTagToCategory(ctx context.Context, categoryID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO category_tags (category_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		categoryID, tagID)
	if err != nil {
		return fmt.Errorf("failed to add tag %d to category %d: %w", tagID, categoryID, err)
	}
	return nil
}

// RemoveTagFromCategory unlinks a tag from a category
func (s *Store) RemoveTagFromCategory(ctx context.Context, categoryID, tagID int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM category_tags WHERE category_id = $1 AND tag_id = $2", categoryID, tagID)
	if err != nil {
		return fmt.Errorf("failed to remove tag %d from category %d: %w", tagID, categoryID, err)
	}
	return requireRow(result)
}

// prefixColumns qualifies a comma-separated column list with a table alias
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
