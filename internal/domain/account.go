package domain

import (
	"context"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleBlogger Role = "blogger"
	RoleReader  Role = "reader"
)

// ParseRole accepts exactly the three known roles, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleBlogger, RoleReader:
		return r, nil
	case "":
		return "", Validation("Role is required")
	}
	return "", Validation("Invalid role. Must be admin, blogger, or reader")
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleBlogger || r == RoleReader
}

// CanManagePosts reports whether r may read drafts and mutate posts.
func (r Role) CanManagePosts() bool { return r == RoleAdmin || r == RoleBlogger }

type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        *string   `gorm:"uniqueIndex;size:191" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;index" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
	// Update writes username, email and role. Demoting the last admin yields ErrLastAdmin.
	Update(ctx context.Context, a *Account) error
	UpdatePassword(ctx context.Context, id, hash string) error
	// Delete removes the account unless it is the last admin.
	Delete(ctx context.Context, id string) error
}
