package rbac

import (
	"context"
	"fmt"

	"github.com/hotelier/backoffice/pkg/storage"
)

// PermissionReader is the slice of the store the checker needs
type PermissionReader interface {
	GroupsOfUser(ctx context.Context, userID int64) ([]storage.Group, error)
	PermissionsOfGroup(ctx context.Context, groupID int64) ([]storage.Permission, error)
}

// Checker evaluates whether a user holds a set of permission codes
type Checker struct {
	store PermissionReader
}

// NewChecker creates a permission checker backed by the given store
func NewChecker(store PermissionReader) *Checker {
	return &Checker{store: store}
}

// CanPerform reports whether the user holds every one of the required codes.
// Superusers always pass; an empty requirement passes for any user. The
// evaluation queries the store on every call, never a cache, so revoking a
// group takes effect on the next request.
func (c *Checker) CanPerform(ctx context.Context, user *storage.User, codes ...string) (bool, error) {
	if len(codes) == 0 {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	held, err := c.EffectiveCodes(ctx, user.ID)
	if err != nil {
		return false, err
	}

	for _, code := range codes {
		if _, ok := held[code]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// EffectiveCodes returns the union of permission codes across the user's
// groups as a set
func (c *Checker) EffectiveCodes(ctx context.Context, userID int64) (map[string]struct{}, error) {
	groups, err := c.store.GroupsOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups for user %d: %w", userID, err)
	}

	codes := make(map[string]struct{})
	for _, group := range groups {
		perms, err := c.store.PermissionsOfGroup(ctx, group.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load permissions for group %d: %w", group.ID, err)
		}
		for _, perm := range perms {
			codes[perm.Code] = struct{}{}
		}
	}
	return codes, nil
}
