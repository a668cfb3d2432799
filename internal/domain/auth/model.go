// Package auth resolves the users that ledger entries and counts are
// attributed to.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
)

// User represents a system user.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewUser creates an active user.
func NewUser(username, fullName, role string) *User {
	return &User{
		ID:        id.New(),
		Username:  strings.ToLower(strings.TrimSpace(username)),
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate validates user data.
func (u *User) Validate() error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if len(u.Username) > 50 {
		return apperror.NewValidation("username must be at most 50 characters").WithDetail("field", "username")
	}
	if !ValidRole(u.Role) {
		return apperror.NewValidation("role must be admin or staff").
			WithDetail("field", "role").
			WithDetail("value", u.Role)
	}
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == security.RoleAdmin
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == security.RoleAdmin || role == security.RoleStaff
}

// CreateUserRequest for provisioning a user. Passwords are capped at
// bcrypt's 72-byte input limit.
type CreateUserRequest struct {
	Username string `validate:"required,max=50"`
	Password string `validate:"required,min=8,max=72"`
	FullName string `validate:"max=100"`
	Role     string `validate:"required,oneof=admin staff"`
}

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. The first failing field is reported.
func (r CreateUserRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate user request: %w", err)
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	if field == "fullname" {
		field = "full_name"
	}
	msg := fmt.Sprintf("%s failed %q", field, fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return apperror.NewValidation(msg).WithDetail("field", field)
}
