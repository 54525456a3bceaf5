package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					kind VARCHAR(16) NOT NULL CHECK (kind IN ('client', 'worker')),
					email VARCHAR(255) NOT NULL,
					password_hash TEXT NOT NULL,
					first_name VARCHAR(255),
					last_name VARCHAR(255),
					is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
					is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
					date_of_birth DATE,
					salary NUMERIC(12, 2),
					date_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					date_deleted TIMESTAMPTZ
				);

				CREATE UNIQUE INDEX idx_users_email_live ON users(email) WHERE date_deleted IS NULL;
				CREATE INDEX idx_users_kind ON users(kind);
			`,
		},
		{
			Version:     2,
			Description: "Create groups and permissions tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS groups (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE
				);

				CREATE TABLE IF NOT EXISTS permissions (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					code VARCHAR(64) NOT NULL UNIQUE
				);

				CREATE TABLE IF NOT EXISTS group_permissions (
					group_id BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
					PRIMARY KEY (group_id, permission_id)
				);

				CREATE TABLE IF NOT EXISTS user_groups (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					group_id BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					PRIMARY KEY (user_id, group_id)
				);
			`,
		},
		{
			Version:     3,
			Description: "Create one_time_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS one_time_tokens (
					id BIGSERIAL PRIMARY KEY,
					value TEXT NOT NULL UNIQUE,
					kind VARCHAR(16) NOT NULL CHECK (kind IN ('register', 'reset')),
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMPTZ NOT NULL,
					consumed_at TIMESTAMPTZ
				);

				CREATE INDEX idx_one_time_tokens_expires_at ON one_time_tokens(expires_at);
			`,
		},
		{
			Version:     4,
			Description: "Create categories, tags, rooms tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS categories (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					price NUMERIC(12, 2) NOT NULL,
					prepayment_percent NUMERIC(5, 2) NOT NULL DEFAULT 0,
					refund_percent NUMERIC(5, 2) NOT NULL DEFAULT 0,
					main_photo_path TEXT NOT NULL DEFAULT '',
					rooms_count INT NOT NULL DEFAULT 0,
					floors INT NOT NULL DEFAULT 1,
					beds INT NOT NULL DEFAULT 1,
					square NUMERIC(8, 2) NOT NULL DEFAULT 0,
					is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
					date_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					date_deleted TIMESTAMPTZ
				);

				CREATE TABLE IF NOT EXISTS tags (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE
				);

				CREATE TABLE IF NOT EXISTS category_tags (
					category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
					PRIMARY KEY (category_id, tag_id)
				);

				CREATE TABLE IF NOT EXISTS rooms (
					id BIGSERIAL PRIMARY KEY,
					room_number INT NOT NULL,
					category_id BIGINT NOT NULL REFERENCES categories(id),
					date_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					date_deleted TIMESTAMPTZ
				);

				CREATE UNIQUE INDEX idx_rooms_number_live ON rooms(room_number) WHERE date_deleted IS NULL;
			`,
		},
		{
			Version:     5,
			Description: "Create photos and sales tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS photos (
					id BIGSERIAL PRIMARY KEY,
					category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					photo_order INT NOT NULL DEFAULT 0,
					path TEXT NOT NULL
				);

				CREATE INDEX idx_photos_category_id ON photos(category_id);

				CREATE TABLE IF NOT EXISTS sales (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					discount NUMERIC(5, 2) NOT NULL CHECK (discount > 0 AND discount < 100),
					start_date TIMESTAMPTZ NOT NULL,
					end_date TIMESTAMPTZ NOT NULL,
					image_path TEXT NOT NULL DEFAULT '',
					date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     6,
			Description: "Seed permissions",
			SQL: `
				INSERT INTO permissions (name, code) VALUES
					('Add tag', 'add_tag'),
					('Edit tag', 'edit_tag'),
					('Delete tag', 'delete_tag'),
					('Add room', 'add_room'),
					('Edit room', 'edit_room'),
					('Delete room', 'delete_room'),
					('Add category', 'add_category'),
					('Edit category', 'edit_category'),
					('Delete category', 'delete_category'),
					('Create photo', 'create_photo'),
					('Edit photo', 'edit_photo'),
					('Delete photo', 'delete_photo'),
					('Create sale', 'create_sale'),
					('Edit sale', 'edit_sale'),
					('Delete sale', 'delete_sale'),
					('Show client', 'show_client'),
					('Add client', 'add_client'),
					('Edit client', 'edit_client'),
					('Show worker', 'show_worker'),
					('Edit worker', 'edit_worker'),
					('Show group', 'show_group'),
					('Add group', 'add_group'),
					('Edit group', 'edit_group'),
					('Delete group', 'delete_group'),
					('Show permission', 'show_permission')
				ON CONFLICT (code) DO NOTHING;
			`,
		},
	}
}

// Migrate applies pending migrations in order
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range GetMigrations() {
		var exists bool
		err := db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
