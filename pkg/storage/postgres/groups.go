package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

// ListGroups returns all groups
func (s *Store) ListGroups(ctx context.Context) ([]*storage.Group, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM groups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*storage.Group
	for rows.Next() {
		var g storage.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// GetGroup loads a group
func (s *Store) GetGroup(ctx context.Context, id int64) (*storage.Group, error) {
	var g storage.Group
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM groups WHERE id = $1", id).
		Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get group %d: %w", id, err)
	}
	return &g, nil
}

// CreateGroup inserts a group and fills in the generated ID
func (s *Store) CreateGroup(ctx context.Context, group *storage.Group) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO groups (name) VALUES ($1) RETURNING id", group.Name).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// UpdateGroup renames a group
func (s *Store) UpdateGroup(ctx context.Context, group *storage.Group) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = $2 WHERE id = $1", group.ID, group.Name)
	if err != nil {
		return fmt.Errorf("failed to update group %d: %w", group.ID, err)
	}
	return requireRow(result)
}

// DeleteGroup removes a group, its permission links and its memberships
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete group %d: %w", id, err)
	}
	return requireRow(result)
}

// AddPermissionToGroup grants a permission to a group; regranting is a no-op
func (s *Store) AddPermissionToGroup(ctx context.Context, groupID, permissionID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_permissions (group_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		groupID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to add permission %d to group %d: %w", permissionID, groupID, err)
	}
	return nil
}

// RemovePermissionFromGroup revokes a permission from a group
func (s *Store) RemovePermissionFromGroup(ctx context.Context, groupID, permissionID int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM group_permissions WHERE group_id = $1 AND permission_id = $2",
		groupID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to remove permission %d from group %d: %w", permissionID, groupID, err)
	}
	return requireRow(result)
}

// ListPermissions returns the seeded permission reference data
func (s *Store) ListPermissions(ctx context.Context) ([]*storage.Permission, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, code FROM permissions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []*storage.Permission
	for rows.Next() {
		var p storage.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, &p)
	}
	return perms, rows.Err()
}

// GetPermission loads one permission
func (s *Store) GetPermission(ctx context.Context, id int64) (*storage.Permission, error) {
	var p storage.Permission
	err := s.db.QueryRowContext(ctx, "SELECT id, name, code FROM permissions WHERE id = $1", id).
		Scan(&p.ID, &p.Name, &p.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get permission %d: %w", id, err)
	}
	return &p, nil
}
