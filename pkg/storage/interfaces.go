package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors returned by stores. Handlers map these onto HTTP statuses;
// anything else propagates as a 500.
var (
	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a user with the email already exists
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateRoomNumber is returned when a live room already has the number
	ErrDuplicateRoomNumber = errors.New("room number already in use")
	// ErrTokenNotFound is returned for unknown, consumed and expired one-time
	// tokens alike, so callers cannot distinguish the three cases
	ErrTokenNotFound = errors.New("token not found")
)

// CredentialStore persists users, password hashes and one-time tokens.
// Implementations must be transactionally consistent: the consume-and-apply
// methods perform the token consumption and the gated state change in a
// single transaction, and concurrent calls with the same token value must
// let exactly one succeed.
type CredentialStore interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, kind UserKind) ([]*User, error)

	GroupsOfUser(ctx context.Context, userID int64) ([]Group, error)
	PermissionsOfGroup(ctx context.Context, groupID int64) ([]Permission, error)
	SetUserGroups(ctx context.Context, userID int64, groupIDs []int64) error

	SaveOneTimeToken(ctx context.Context, token *OneTimeToken) error
	FindOneTimeToken(ctx context.Context, value string, kind TokenKind) (*OneTimeToken, error)
	// ConfirmRegistration consumes an unconsumed register token and flips the
	// owner's confirmed flag, atomically. Returns the owner's user ID.
	ConfirmRegistration(ctx context.Context, value string) (int64, error)
	// ResetPassword consumes an unconsumed reset token and stores the new
	// password hash, atomically. Returns the owner's user ID.
	ResetPassword(ctx context.Context, value string, newHash string) (int64, error)
	// PurgeOneTimeTokens deletes consumed tokens and tokens expired before
	// the cutoff. Returns the number of rows removed.
	PurgeOneTimeTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// RoomStore persists rooms.
type RoomStore interface {
	ListRooms(ctx context.Context) ([]*Room, error)
	GetRoom(ctx context.Context, id int64) (*Room, error)
	CreateRoom(ctx context.Context, room *Room) error
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id int64) error
}

// CategoryStore persists room categories and their tag links.
type CategoryStore interface {
	FilterCategories(ctx context.Context, filter CategoryFilter) ([]*Category, int, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id int64) error
	// FamiliarCategories returns visible categories sharing at least one tag
	FamiliarCategories(ctx context.Context, id int64) ([]*Category, error)
	TagsOfCategory(ctx context.Context, id int64) ([]Tag, error)
	AddTagToCategory(ctx context.Context, categoryID, tagID int64) error
	RemoveTagFromCategory(ctx context.Context, categoryID, tagID int64) error
}

// TagStore persists tags.
type TagStore interface {
	ListTags(ctx context.Context) ([]*Tag, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	CreateTag(ctx context.Context, tag *Tag) error
	UpdateTag(ctx context.Context, tag *Tag) error
	DeleteTag(ctx context.Context, id int64) error
}

// PhotoStore persists category gallery photos.
type PhotoStore interface {
	ListPhotos(ctx context.Context) ([]*Photo, error)
	GetPhoto(ctx context.Context, id int64) (*Photo, error)
	CreatePhoto(ctx context.Context, photo *Photo) error
	UpdatePhoto(ctx context.Context, photo *Photo) error
	DeletePhoto(ctx context.Context, id int64) error
}

// SaleStore persists sales.
type SaleStore interface {
	ListSales(ctx context.Context) ([]*Sale, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	CreateSale(ctx context.Context, sale *Sale) error
	UpdateSale(ctx context.Context, sale *Sale) error
	DeleteSale(ctx context.Context, id int64) error
}

// GroupStore persists permission groups and their membership in permissions.
type GroupStore interface {
	ListGroups(ctx context.Context) ([]*Group, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	CreateGroup(ctx context.Context, group *Group) error
	UpdateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id int64) error
	AddPermissionToGroup(ctx context.Context, groupID, permissionID int64) error
	RemovePermissionFromGroup(ctx context.Context, groupID, permissionID int64) error
}

// PermissionStore reads the immutable permission reference data.
type PermissionStore interface {
	ListPermissions(ctx context.Context) ([]*Permission, error)
	GetPermission(ctx context.Context, id int64) (*Permission, error)
}

// Store aggregates every persistence interface the API needs.
type Store interface {
	CredentialStore
	RoomStore
	CategoryStore
	TagStore
	PhotoStore
	SaleStore
	GroupStore
	PermissionStore
}

// FileStore persists uploaded images and returns the stored path. The storage
// engine behind it is treated as already provided; only the local filesystem
// implementation ships with this repo.
type FileStore interface {
	// Save writes the content under a generated name derived from fileName's
	// extension and returns the stored path.
	Save(content io.Reader, fileName string) (string, error)
	Remove(path string) error
}

// Config holds storage backend configuration.
type Config struct {
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	// MediaRoot is the directory uploaded images are written to
	MediaRoot string
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		MediaRoot:        "/tmp/backoffice/media",
	}
}
