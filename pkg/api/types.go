package api

import (
	"fmt"
	"time"

	"github.com/hotelier/backoffice/pkg/storage"
)

// loginRequest carries the credentials for POST /auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned by login and refresh
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// refreshRequest carries the refresh token for POST /auth/refresh_user_token
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// signUpRequest creates a client account
type signUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
}

// signUpResponse is the created account plus the confirmation link. The link
// is also mailed; returning it keeps the sign-up contract self-contained.
type signUpResponse struct {
	*storage.User
	ConfirmLink string `json:"confirm_link"`
}

// confirmLinkResponse is returned by request_reset
type confirmLinkResponse struct {
	Detail      string `json:"detail"`
	ConfirmLink string `json:"confirm_link"`
}

// requestResetRequest carries the account email for POST /auth/request_reset
type requestResetRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest carries the new password
type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (r signUpRequest) validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// tagRequest creates or renames a tag
type tagRequest struct {
	Name string `json:"name"`
}

func (r tagRequest) validate() error {
	if len(r.Name) < 3 {
		return fmt.Errorf("tag name must be at least 3 characters")
	}
	return nil
}

// roomRequest creates or updates a room
type roomRequest struct {
	RoomNumber int   `json:"room_number"`
	CategoryID int64 `json:"category_id"`
}

func (r roomRequest) validate() error {
	if r.RoomNumber <= 0 {
		return fmt.Errorf("room_number must be positive")
	}
	if r.CategoryID <= 0 {
		return fmt.Errorf("category_id is required")
	}
	return nil
}

// categoryUpdate is a partial update: nil fields keep the stored value
type categoryUpdate struct {
	Name              *string
	Description       *string
	Price             *float64
	PrepaymentPercent *float64
	RefundPercent     *float64
	MainPhotoPath     *string
	RoomsCount        *int
	Floors            *int
	Beds              *int
	Square            *float64
	IsHidden          *bool
}

// Apply merges the set fields into the category
func (u categoryUpdate) Apply(c *storage.Category) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Price != nil {
		c.Price = *u.Price
	}
	if u.PrepaymentPercent != nil {
		c.PrepaymentPercent = *u.PrepaymentPercent
	}
	if u.RefundPercent != nil {
		c.RefundPercent = *u.RefundPercent
	}
	if u.MainPhotoPath != nil {
		c.MainPhotoPath = *u.MainPhotoPath
	}
	if u.RoomsCount != nil {
		c.RoomsCount = *u.RoomsCount
	}
	if u.Floors != nil {
		c.Floors = *u.Floors
	}
	if u.Beds != nil {
		c.Beds = *u.Beds
	}
	if u.Square != nil {
		c.Square = *u.Square
	}
	if u.IsHidden != nil {
		c.IsHidden = *u.IsHidden
	}
}

// categoryListResponse is the paginated category listing
type categoryListResponse struct {
	Items    []*storage.Category `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// categoryTagsRequest links or unlinks tags
type categoryTagsRequest struct {
	TagIDs []int64 `json:"tag_ids"`
}

// photoUpdate is a partial update for a photo
type photoUpdate struct {
	CategoryID *int64 `json:"category_id"`
	Order      *int   `json:"order"`
}

// Apply merges the set fields into the photo
func (u photoUpdate) Apply(p *storage.Photo) {
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.Order != nil {
		p.Order = *u.Order
	}
}

// saleUpdate is a partial update for a sale
type saleUpdate struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Discount    *float64   `json:"discount"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// Apply merges the set fields into the sale
func (u saleUpdate) Apply(s *storage.Sale) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Discount != nil {
		s.Discount = *u.Discount
	}
	if u.StartDate != nil {
		s.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		s.EndDate = *u.EndDate
	}
}

func validateDiscount(d float64) error {
	if d <= 0 || d >= 100 {
		return fmt.Errorf("discount must be between 0 and 100 exclusive")
	}
	return nil
}

// clientCreateRequest creates a client through the back office
type clientCreateRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
}

// clientUpdate is a partial update for a client
type clientUpdate struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
}

// Apply merges the set fields into the user
func (u clientUpdate) Apply(user *storage.User) error {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.FirstName != nil {
		user.FirstName = u.FirstName
	}
	if u.LastName != nil {
		user.LastName = u.LastName
	}
	if u.DateOfBirth != nil {
		dob, err := parseDate(*u.DateOfBirth)
		if err != nil {
			return fmt.Errorf("invalid date_of_birth: %s", *u.DateOfBirth)
		}
		user.DateOfBirth = &dob
	}
	return nil
}

// workerCreateRequest creates a worker account. The worker receives a
// confirmation email with a one-time token; the initial password is random
// and unusable until reset.
type workerCreateRequest struct {
	Email       string   `json:"email"`
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Salary      *float64 `json:"salary"`
	IsSuperuser bool     `json:"is_superuser"`
	GroupIDs    []int64  `json:"group_ids"`
}

// workerUpdate is a partial update for a worker. A nil GroupIDs keeps the
// current membership; an empty slice clears it.
type workerUpdate struct {
	Email       *string  `json:"email"`
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Salary      *float64 `json:"salary"`
	IsSuperuser *bool    `json:"is_superuser"`
	GroupIDs    []int64  `json:"group_ids"`
}

// Apply merges the set fields into the user
func (u workerUpdate) Apply(user *storage.User) {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.FirstName != nil {
		user.FirstName = u.FirstName
	}
	if u.LastName != nil {
		user.LastName = u.LastName
	}
	if u.Salary != nil {
		user.Salary = u.Salary
	}
	if u.IsSuperuser != nil {
		user.IsSuperuser = *u.IsSuperuser
	}
}

// groupRequest creates or renames a group
type groupRequest struct {
	Name string `json:"name"`
}

// groupPermissionsRequest replaces a group's permission set
type groupPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

// groupResponse is a group with its permissions expanded
type groupResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Permissions []storage.Permission `json:"permissions"`
}

// detailResponse is the uniform error payload
type detailResponse struct {
	Detail string `json:"detail"`
}
