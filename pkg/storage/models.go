package storage

import "time"

// UserKind discriminates the two user variants sharing the users table.
type UserKind string

const (
	// KindClient is a hotel guest account created via sign-up
	KindClient UserKind = "client"
	// KindWorker is a staff account managed through the workers API
	KindWorker UserKind = "worker"
)

// TokenKind scopes a one-time token to the flow it gates. A register token
// must never satisfy a reset lookup and vice versa.
type TokenKind string

const (
	// TokenRegister gates account confirmation after sign-up
	TokenRegister TokenKind = "register"
	// TokenReset gates a password reset
	TokenReset TokenKind = "reset"
)

// User is the shared identity record for clients and workers. Role-specific
// columns are nullable and only meaningful for the matching kind.
type User struct {
	ID           int64      `json:"id"`
	Kind         UserKind   `json:"-"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	IsConfirmed  bool       `json:"is_confirmed"`
	IsSuperuser  bool       `json:"is_superuser,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Salary       *float64   `json:"salary,omitempty"`
	CreatedAt    time.Time  `json:"date_created"`
	DeletedAt    *time.Time `json:"-"`
}

// OneTimeToken is a persisted, single-use opaque value gating a sensitive
// state transition. Consumed tokens are kept until the purge job removes them
// so that re-presentation uniformly reads as "not found".
type OneTimeToken struct {
	ID         int64
	Value      string
	Kind       TokenKind
	UserID     int64
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Group is a named bundle of permissions assignable to workers.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Permission is immutable reference data: a stable code plus a display name.
type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Room is a physical room assigned to a category.
type Room struct {
	ID         int64      `json:"id"`
	RoomNumber int        `json:"room_number"`
	CategoryID int64      `json:"category_id"`
	Category   *Category  `json:"category,omitempty"`
	CreatedAt  time.Time  `json:"date_created"`
	DeletedAt  *time.Time `json:"date_deleted,omitempty"`
}

// Category describes a bookable room class. Deletion is soft: DeletedAt is
// set and the row stays for historical sales/rooms.
type Category struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	PrepaymentPercent float64    `json:"prepayment_percent"`
	RefundPercent     float64    `json:"refund_percent"`
	MainPhotoPath     string     `json:"main_photo_path"`
	RoomsCount        int        `json:"rooms_count"`
	Floors            int        `json:"floors"`
	Beds              int        `json:"beds"`
	Square            float64    `json:"square"`
	IsHidden          bool       `json:"is_hidden"`
	CreatedAt         time.Time  `json:"date_created"`
	DeletedAt         *time.Time `json:"date_deleted,omitempty"`
}

// Tag is a searchable label attached to categories.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Photo is a gallery image of a category, ordered within the gallery.
type Photo struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	Order      int       `json:"order"`
	Path       string    `json:"path"`
}

// Sale is a time-bounded discount with a promo image.
type Sale struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Discount    float64   `json:"discount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	ImagePath   string    `json:"image_path"`
	CreatedAt   time.Time `json:"date_created"`
}

// CategoryFilter carries the list-endpoint filter and pagination parameters.
// Nil range bounds are unconstrained.
type CategoryFilter struct {
	Page       int
	PageSize   int
	SortBy     string
	Desc       bool
	ShowHidden bool

	ID         *int64
	Name       *string
	BedsFrom   *int
	BedsUntil  *int
	FloorsFrom *int
	FloorsUntil *int
	SquareFrom  *float64
	SquareUntil *float64
	PriceFrom   *float64
	PriceUntil  *float64
	RoomsFrom   *int
	RoomsUntil  *int
}
