package domain

import (
	"context"
	"time"
)

const (
	RoleProfessional = "professional"
	RoleEmployer     = "employer"
	RoleAdmin        = "admin"
)

// Account mirrors an auth-provider user into the public.users table.
type Account struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  *string    `json:"full_name,omitempty"`
	UserType  string     `json:"user_type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Identity is what a verified session token says about the caller.
type Identity struct {
	UserID   string
	Email    string
	FullName string
	UserType string
}

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type AccountUsecase interface {
	// EnsureAccount returns the mirrored account, creating it on first use.
	EnsureAccount(ctx context.Context, identity Identity) (*Account, error)
	GetCurrent(ctx context.Context) (*Account, error)
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleProfessional, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}
