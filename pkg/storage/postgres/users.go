package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hotelier/backoffice/pkg/storage"
)

const userColumns = `id, kind, email, password_hash, first_name, last_name,
	is_confirmed, is_superuser, date_of_birth, salary, date_created, date_deleted`

func scanUser(row interface{ Scan(...interface{}) error }) (*storage.User, error) {
	var u storage.User
	err := row.Scan(
		&u.ID, &u.Kind, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsConfirmed, &u.IsSuperuser, &u.DateOfBirth, &u.Salary,
		&u.CreatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID loads a live user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND date_deleted IS NULL`, userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail loads a live user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND date_deleted IS NULL`, userColumns)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// CreateUser inserts a user and fills in the generated ID and creation time
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (kind, email, password_hash, first_name, last_name,
			is_confirmed, is_superuser, date_of_birth, salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, date_created
	`

	err := s.db.QueryRowContext(ctx, query,
		user.Kind, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsConfirmed, user.IsSuperuser, user.DateOfBirth, user.Salary,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "idx_users_email_live") {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser updates every mutable column of a user
func (s *Store) UpdateUser(ctx context.Context, user *storage.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
			is_confirmed = $6, is_superuser = $7, date_of_birth = $8, salary = $9
		WHERE id = $1 AND date_deleted IS NULL
	`

	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsConfirmed, user.IsSuperuser, user.DateOfBirth, user.Salary,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_users_email_live") {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return requireRow(result)
}

// DeleteUser soft deletes a user
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET date_deleted = NOW() WHERE id = $1 AND date_deleted IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return requireRow(result)
}

// ListUsers returns all live users of a kind
func (s *Store) ListUsers(ctx context.Context, kind storage.UserKind) ([]*storage.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE kind = $1 AND date_deleted IS NULL ORDER BY id`, userColumns)

	rows, err := s.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*storage.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GroupsOfUser returns the groups a user belongs to
func (s *Store) GroupsOfUser(ctx context.Context, userID int64) ([]storage.Group, error) {
	query := `
		SELECT g.id, g.name
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups of user %d: %w", userID, err)
	}
	defer rows.Close()

	var groups []storage.Group
	for rows.Next() {
		var g storage.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// PermissionsOfGroup returns the permissions granted by a group
func (s *Store) PermissionsOfGroup(ctx context.Context, groupID int64) ([]storage.Permission, error) {
	query := `
		SELECT p.id, p.name, p.code
		FROM permissions p
		JOIN group_permissions gp ON gp.permission_id = p.id
		WHERE gp.group_id = $1
		ORDER BY p.id
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions of group %d: %w", groupID, err)
	}
	defer rows.Close()

	var perms []storage.Permission
	for rows.Next() {
		var p storage.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// SetUserGroups replaces a user's group membership
func (s *Store) SetUserGroups(ctx context.Context, userID int64, groupIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_groups WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear groups of user %d: %w", userID, err)
	}
	for _, groupID := range groupIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)", userID, groupID); err != nil {
			return fmt.Errorf("failed to add user %d to group %d: %w", userID, groupID, err)
		}
	}

	return tx.Commit()
}

// SaveOneTimeToken persists a token and fills in the generated ID
func (s *Store) SaveOneTimeToken(ctx context.Context, token *storage.OneTimeToken) error {
	query := `
		INSERT INTO one_time_tokens (value, kind, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		token.Value, token.Kind, token.UserID, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save one-time token: %w", err)
	}
	return nil
}

// FindOneTimeToken looks up a token by value and kind. Consumed and expired
// tokens read as not found.
func (s *Store) FindOneTimeToken(ctx context.Context, value string, kind storage.TokenKind) (*storage.OneTimeToken, error) {
	query := `
		SELECT id, value, kind, user_id, created_at, expires_at, consumed_at
		FROM one_time_tokens
		WHERE value = $1 AND kind = $2 AND consumed_at IS NULL AND expires_at > NOW()
	`

	var t storage.OneTimeToken
	err := s.db.QueryRowContext(ctx, query, value, kind).Scan(
		&t.ID, &t.Value, &t.Kind, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTokenNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to find one-time token: %w", err)
	}
	return &t, nil
}

// consumeToken marks an unconsumed, unexpired token as consumed and returns
// its owner. The single guarded UPDATE is what makes concurrent presentations
// of the same value race-safe: only one caller sees a row.
func consumeToken(ctx context.Context, tx *sql.Tx, value string, kind storage.TokenKind) (int64, error) {
	query := `
		UPDATE one_time_tokens
		SET consumed_at = NOW()
		WHERE value = $1 AND kind = $2 AND consumed_at IS NULL AND expires_at > NOW()
		RETURNING user_id
	`

	var userID int64
	err := tx.QueryRowContext(ctx, query, value, kind).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrTokenNotFound
	} else if err != nil {
		return 0, fmt.Errorf("failed to consume token: %w", err)
	}
	return userID, nil
}

// ConfirmRegistration consumes a register token and confirms its owner in one
// transaction
func (s *Store) ConfirmRegistration(ctx context.Context, value string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := consumeToken(ctx, tx, value, storage.TokenRegister)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET is_confirmed = TRUE WHERE id = $1", userID); err != nil {
		return 0, fmt.Errorf("failed to confirm user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return userID, nil
}

// ResetPassword consumes a reset token and stores the new password hash in
// one transaction
func (s *Store) ResetPassword(ctx context.Context, value string, newHash string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := consumeToken(ctx, tx, value, storage.TokenReset)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = $2 WHERE id = $1", userID, newHash); err != nil {
		return 0, fmt.Errorf("failed to reset password for user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit password reset: %w", err)
	}
	return userID, nil
}

// PurgeOneTimeTokens deletes consumed tokens and tokens expired before cutoff
func (s *Store) PurgeOneTimeTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM one_time_tokens WHERE consumed_at IS NOT NULL OR expires_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge one-time tokens: %w", err)
	}
	return result.RowsAffected()
}

// requireRow converts a zero-row update into ErrNotFound
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
