package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             string     `json:"role"`
	IsVerified       bool       `json:"is_verified"`
	VerificationCode *string    `json:"-"`
	CodeExpiresAt    *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// Valid user roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var validRoles = map[string]bool{
	RoleUser:      true,
	RoleModerator: true,
	RoleAdmin:     true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// StaffRoles are the roles allowed to manage bookings, cars and dashboards.
var StaffRoles = []string{RoleModerator, RoleAdmin}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserInfo is the public shape of a user record.
type UserInfo struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	LastLogin  *time.Time `json:"last_login"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail lower-cases and trims an email address. Applied on every
// write and every lookup so the unique index sees one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

func (r *RegisterRequest) Validate(minPasswordLen int) error {
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: name, email, and password are required", ErrValidation)
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(r.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	return nil
}

func (r *VerifyEmailRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyEmailRequest) Validate() error {
	if r.Email == "" || r.Code == "" {
		return fmt.Errorf("%w: email and verification code are required", ErrValidation)
	}
	return nil
}

func (r *UpdateProfileRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

func (r *ChangePasswordRequest) Validate(minPasswordLen int) error {
	if r.CurrentPassword == "" || r.NewPassword == "" {
		return fmt.Errorf("%w: both passwords are required", ErrValidation)
	}
	if len(r.NewPassword) < minPasswordLen {
		return fmt.Errorf("%w: new password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	return nil
}
