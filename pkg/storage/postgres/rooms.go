package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

// ListRooms returns all live rooms with their category attached
func (s *Store) ListRooms(ctx context.Context) ([]*storage.Room, error) {
	query := `
		SELECT r.id, r.room_number, r.category_id, r.date_created,
			c.id, c.name, c.description, c.price, c.prepayment_percent, c.refund_percent,
			c.main_photo_path, c.rooms_count, c.floors, c.beds, c.square, c.is_hidden,
			c.date_created
		FROM rooms r
		JOIN categories c ON c.id = r.category_id
		WHERE r.date_deleted IS NULL
		ORDER BY r.room_number
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*storage.Room
	for rows.Next() {
		room, err := scanRoomWithCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// GetRoom loads a live room with its category attached
func (s *Store) GetRoom(ctx context.Context, id int64) (*storage.Room, error) {
	query := `
		SELECT r.id, r.room_number, r.category_id, r.date_created,
			c.id, c.name, c.description, c.price, c.prepayment_percent, c.refund_percent,
			c.main_photo_path, c.rooms_count, c.floors, c.beds, c.square, c.is_hidden,
			c.date_created
		FROM rooms r
		JOIN categories c ON c.id = r.category_id
		WHERE r.id = $1 AND r.date_deleted IS NULL
	`

	room, err := scanRoomWithCategory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

// CreateRoom inserts a room. The room number must be unique among live rooms.
func (s *Store) CreateRoom(ctx context.Context, room *storage.Room) error {
	query := `
		INSERT INTO rooms (room_number, category_id)
		VALUES ($1, $2)
		RETURNING id, date_created
	`

	err := s.db.QueryRowContext(ctx, query, room.RoomNumber, room.CategoryID).
		Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "idx_rooms_number_live") {
			return storage.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// UpdateRoom updates a room's number and category
func (s *Store) UpdateRoom(ctx context.Context, room *storage.Room) error {
	query := `
		UPDATE rooms
		SET room_number = $2, category_id = $3
		WHERE id = $1 AND date_deleted IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, room.ID, room.RoomNumber, room.CategoryID)
	if err != nil {
		if isUniqueViolation(err, "idx_rooms_number_live") {
			return storage.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("failed to update room %d: %w", room.ID, err)
	}
	return requireRow(result)
}

// DeleteRoom soft deletes a room
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE rooms SET date_deleted = NOW() WHERE id = $1 AND date_deleted IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to delete room %d: %w", id, err)
	}
	return requireRow(result)
}

func scanRoomWithCategory(row interface{ Scan(...interface{}) error }) (*storage.Room, error) {
	var r storage.Room
	var c storage.Category
	err := row.Scan(
		&r.ID, &r.RoomNumber, &r.CategoryID, &r.CreatedAt,
		&c.ID, &c.Name, &c.Description, &c.Price, &c.PrepaymentPercent, &c.RefundPercent,
		&c.MainPhotoPath, &c.RoomsCount, &c.Floors, &c.Beds, &c.Square, &c.IsHidden,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Category = &c
	return &r, nil
}
