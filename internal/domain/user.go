package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email or username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Role is an application role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
)

// ParseRole returns the Role for s, or false if s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin, RoleOrganizer:
		return r, true
	}
	return "", false
}

// Requester is the authenticated identity invoking an operation.
type Requester struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAuthenticated reports whether the requester carries a user id.
func (r Requester) IsAuthenticated() bool {
	return r.ID != ""
}

// CanModify reports whether the requester may update or delete the event:
// admins may modify any event, everyone else only events they created.
func (r Requester) CanModify(e *Event) bool {
	if e == nil || !r.IsAuthenticated() {
		return false
	}
	return r.Role == RoleAdmin || e.CreatedBy == r.ID
}

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Requester returns the identity the user acts as.
func (u *User) Requester() Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (Requester, error)
}

// Authenticator resolves a token to the requester it acts as right now. The
// role comes from the stored user, not from the token, so demotions and
// deletions take effect before the token expires.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Requester, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}

// SignUpInput is the data needed to register a user.
type SignUpInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     Role
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	Me(ctx context.Context, userID string) (*User, error)
	Promote(ctx context.Context, email string, role Role) (*User, error)
}
