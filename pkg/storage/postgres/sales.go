package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

const saleColumns = "id, name, description, discount, start_date, end_date, image_path, date_created"

func scanSale(row interface{ Scan(...interface{}) error }) (*storage.Sale, error) {
	var s storage.Sale
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Discount,
		&s.StartDate, &s.EndDate, &s.ImagePath, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSales returns all sales, newest first
func (s *Store) ListSales(ctx context.Context) ([]*storage.Sale, error) {
	query := fmt.Sprintf("SELECT %s FROM sales ORDER BY start_date DESC", saleColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*storage.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// GetSale loads a sale
func (s *Store) GetSale(ctx context.Context, id int64) (*storage.Sale, error) {
	query := fmt.Sprintf("SELECT %s FROM sales WHERE id = $1", saleColumns)

	sale, err := scanSale(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get sale %d: %w", id, err)
	}
	return sale, nil
}

// CreateSale inserts a sale and fills in the generated ID
func (s *Store) CreateSale(ctx context.Context, sale *storage.Sale) error {
	query := `
		INSERT INTO sales (name, description, discount, start_date, end_date, image_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, date_created
	`

	err := s.db.QueryRowContext(ctx, query,
		sale.Name, sale.Description, sale.Discount, sale.StartDate, sale.EndDate, sale.ImagePath,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// UpdateSale updates every mutable column of a sale
func (s *Store) UpdateSale(ctx context.Context, sale *storage.Sale) error {
	query := `
		UPDATE sales
		SET name = $2, description = $3, discount = $4, start_date = $5, end_date = $6, image_path = $7
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		sale.ID, sale.Name, sale.Description, sale.Discount, sale.StartDate, sale.EndDate, sale.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to update sale %d: %w", sale.ID, err)
	}
	return requireRow(result)
}

// DeleteSale removes a sale
func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete sale %d: %w", id, err)
	}
	return requireRow(result)
}
