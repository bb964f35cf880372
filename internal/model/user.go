package model

import "regexp"

// phoneRe matches international format: "+" followed by 5 to 15 digits.
var phoneRe = regexp.MustCompile(`^\+\d{5,15}$`)

// ValidPhone reports whether s is a phone number in international format.
// It backs the custom "phone" binding rule.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

const (
	// Role IDs seeded at bootstrap. Registration defaults to RoleIDUser.
	RoleIDUser  = 1
	RoleIDAdmin = 2

	RoleNameUser  = "User"
	RoleNameAdmin = "Admin"
)

// Role is a named privilege tier users are assigned to.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User represents an account. PasswordHash is never serialized.
type User struct {
	ID           int    `json:"id"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	RoleID       int    `json:"role_id"`
}

// UserInfo is the user-facing view of an account, with the role resolved
// by an explicit lookup at read time.
type UserInfo struct {
	ID          int    `json:"id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	RoleID      int    `json:"role_id"`
	RoleName    string `json:"role_name"`
}

// RegisterRequest carries the registration fields. The phone rule is a
// custom validator registered at startup (see cmd/server).
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	PhoneNumber     string `json:"phone_number" binding:"required,phone"`
	FirstName       string `json:"first_name" binding:"required,min=3,max=50"`
	LastName        string `json:"last_name" binding:"required,min=3,max=50"`
	Password        string `json:"password" binding:"required,min=5,max=50"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=5,max=50"`
}

// UpdateProfileRequest is a partial update: only non-nil fields are applied.
type UpdateProfileRequest struct {
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,phone"`
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,min=3,max=50"`
	LastName    *string `json:"last_name,omitempty" binding:"omitempty,min=3,max=50"`
}

// ChangePasswordRequest rejects password reuse and confirmation mismatch
// before anything is hashed or touches storage.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required,min=5,max=50"`
	Password        string `json:"password" binding:"required,min=5,max=50,nefield=OldPassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

type ChangeRoleRequest struct {
	RoleID int `json:"role_id" binding:"required"`
}

type AddRoleRequest struct {
	ID   int    `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}
