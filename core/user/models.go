package user

import (
	"strings"
	"time"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

// SessionState is the position of a visitor in the login flow:
// LoggedOut -> PendingSignup -> LoggedIn.
type SessionState string

const (
	StateLoggedOut     SessionState = "logged_out"
	StatePendingSignup SessionState = "pending_signup"
	StateLoggedIn      SessionState = "logged_in"
)

// User is a row of the `users` table. Users are created by an administrator and
// are read-only for the portal.
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName is the name shown once logged in.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return EmailLocalPart(u.Email)
}

// EmailLocalPart returns what comes before "@".
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// NewUser is a user row added by an administrator.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=120"`
	Role     string `json:"role" validate:"userrole"`
	IsActive bool   `json:"is_active"`
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
}

// LoginRequest is what a visitor types on the login form.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=120"`
}

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.Name = core.CleanString(lr.Name)
}

// LoginResult tells which state the login attempt leads to.
type LoginResult struct {
	State SessionState
	User  User // zero unless Known
	Known bool // a user row exists but is not active
	Email string
	Name  string // best known display name
}

// SignupRequest is a row of the `signup` table.
type SignupRequest struct {
	Name      string    `json:"name" validate:"required,notblank,max=120"`
	Email     string    `json:"email" validate:"required,email"`
	Group     string    `json:"group" validate:"omitempty,oneof=junior senior"`
	Comment   string    `json:"comment" validate:"max=2000"`
	Known     bool      `json:"known"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (sr *SignupRequest) Clean() {
	sr.Name = core.CleanString(sr.Name)
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Group = core.NormalizeGroup(sr.Group)
	sr.Comment = core.CleanString(sr.Comment)
}

// SignupPayload is the serialized `request` column.
type SignupPayload struct {
	Group   string `json:"group"`
	Comment string `json:"comment"`
}

func (sr SignupRequest) Payload() SignupPayload {
	return SignupPayload{Group: sr.Group, Comment: sr.Comment}
}
