package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-api/internal/core/auth"
	"portfolio-api/internal/domain"
	"portfolio-api/pkg/utils"
)

const tokenBytes = 32

// CredentialVerifier checks a username and password pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*domain.Account, error)
}

// SessionService issues, resolves and revokes login sessions.
type SessionService struct {
	creds  CredentialVerifier
	store  domain.SessionStore
	signer *auth.Signer
	ttl    time.Duration
	log    *zap.Logger
	Now    func() time.Time
}

func NewSessionService(creds CredentialVerifier, store domain.SessionStore, signer *auth.Signer, ttl time.Duration, l *zap.Logger) *SessionService {
	if l == nil {
		l = zap.NewNop()
	}
	s := &SessionService{creds: creds, store: store, signer: signer, ttl: ttl, log: l, Now: time.Now}
	if signer.Now == nil {
		signer.Now = func() time.Time { return s.Now() }
	}
	return s
}

// Login returns the signed cookie value and the stored session.
func (s *SessionService) Login(ctx context.Context, username, password string) (string, *domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", nil, domain.Validation("Username and password are required")
	}
	a, err := s.creds.Verify(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	now := s.Now().UTC()
	if n, err := s.store.PurgeExpired(ctx, now); err != nil {
		s.log.Warn("purge expired sessions", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("purged expired sessions", zap.Int64("count", n))
	}

	token, err := utils.NewToken(tokenBytes)
	if err != nil {
		return "", nil, domain.Storage("Failed to create session", err)
	}
	sess := &domain.Session{
		TokenHash: utils.HashToken(token),
		AccountID: a.ID,
		Username:  a.Username,
		Role:      a.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return "", nil, domain.Storage("Failed to create session", err)
	}
	cookie, err := s.signer.Sign(token, sess.ExpiresAt)
	if err != nil {
		return "", nil, domain.Storage("Failed to create session", err)
	}
	s.log.Info("login", zap.String("username", a.Username), zap.String("role", string(a.Role)))
	return cookie, sess, nil
}

// Logout destroys the session behind cookie. Unknown or malformed cookies are not errors.
func (s *SessionService) Logout(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	token, err := s.signer.Parse(cookie)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, utils.HashToken(token)); err != nil {
		return domain.Storage("Failed to destroy session", err)
	}
	return nil
}

// Validate resolves cookie to the principal it was issued for.
func (s *SessionService) Validate(ctx context.Context, cookie string) (*domain.Principal, error) {
	if cookie == "" {
		return nil, domain.Unauthenticated("Not authenticated")
	}
	token, err := s.signer.Parse(cookie)
	if err != nil {
		return nil, domain.Unauthenticated("Invalid session")
	}
	hash := utils.HashToken(token)
	sess, err := s.store.Find(ctx, hash)
	if err != nil {
		return nil, domain.Storage("Failed to load session", err)
	}
	if sess == nil {
		return nil, domain.Unauthenticated("Session not found")
	}
	if sess.Expired(s.Now()) {
		if err := s.store.Delete(ctx, hash); err != nil {
			s.log.Warn("delete expired session", zap.Error(err))
		}
		return nil, domain.Unauthenticated("Session expired")
	}
	p := sess.Principal()
	return &p, nil
}

func (s *SessionService) RevokeAccount(ctx context.Context, accountID string) error {
	if err := s.store.DeleteByAccount(ctx, accountID); err != nil {
		return domain.Storage("Failed to revoke sessions", err)
	}
	return nil
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeExpired(ctx, s.Now().UTC())
	if err != nil {
		return 0, domain.Storage("Failed to purge sessions", err)
	}
	return n, nil
}
