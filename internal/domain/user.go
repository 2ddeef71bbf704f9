package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role is the closed set of account roles. Authorization decisions go
// through Role.Allows rather than ad hoc comparisons in handlers.
type Role string

const (
	RoleUser  Role = "user"
	RoleGuide Role = "guide"
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleUser:  true,
	RoleGuide: true,
	RoleAdmin: true,
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, validRoles[r]
}

// Allows reports whether an account holding role r satisfies the
// required role. Admin satisfies every requirement.
func (r Role) Allows(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// Toggle flips between the two non-admin roles. Admin is never assigned
// through toggling.
func (r Role) Toggle() Role {
	if r == RoleGuide {
		return RoleUser
	}
	return RoleGuide
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	Bio          string    `json:"bio,omitempty"`
	DailyRate    float64   `json:"daily_rate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

type UserInfo struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	IsVerified bool    `json:"is_verified"`
	Bio        string  `json:"bio,omitempty"`
	DailyRate  float64 `json:"daily_rate,omitempty"`
}

type UpdateProfileRequest struct {
	Bio       *string  `json:"bio,omitempty"`
	DailyRate *float64 `json:"daily_rate,omitempty"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
)

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernameRegex.MatchString(r.Username) {
		return fmt.Errorf("username must be 3-32 characters (letters, digits, '_', '.', '-')")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		Bio:        u.Bio,
		DailyRate:  u.DailyRate,
	}
}

// Token purposes for single-use auth tokens.
const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposeResetPassword = "reset_password"
)
