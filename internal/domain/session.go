package domain

import (
	"context"
	"time"
)

// Principal is who a validated session says the caller is.
type Principal struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
}

// Session is keyed by the sha256 of the opaque token; the token itself is never stored.
type Session struct {
	TokenHash string    `gorm:"primaryKey;size:64" json:"-"`
	AccountID string    `gorm:"size:36;not null;index" json:"accountId"`
	Username  string    `gorm:"size:64;not null" json:"username"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

func (s *Session) Principal() Principal {
	return Principal{AccountID: s.AccountID, Username: s.Username, Role: s.Role}
}

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	// Find returns nil, nil when no session has this hash.
	Find(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteByAccount(ctx context.Context, accountID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{&Account{}, &Post{}, &Session{}}
}
