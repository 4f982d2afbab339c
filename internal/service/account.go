package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"portfolio-api/internal/domain"
	"portfolio-api/pkg/utils"
)

type CreateAccountInput struct {
	Username string
	Email    *string
	Password string
	Role     string
}

type UpdateAccountInput struct {
	Username string
	Email    *string
	Role     string
}

// SessionRevoker drops every session of an account.
type SessionRevoker interface {
	DeleteByAccount(ctx context.Context, accountID string) error
}

// AccountService owns accounts: creation, credential checks and the last-admin rule.
type AccountService struct {
	repo     domain.AccountRepository
	sessions SessionRevoker
	log      *zap.Logger
}

func NewAccountService(repo domain.AccountRepository, sessions SessionRevoker, l *zap.Logger) *AccountService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AccountService{repo: repo, sessions: sessions, log: l}
}

func normalizeEmail(e *string) *string {
	if e == nil {
		return nil
	}
	s := strings.TrimSpace(*e)
	if s == "" {
		return nil
	}
	return &s
}

func checkNewPassword(pw string) error {
	if len(pw) > utils.MaxPasswordBytes {
		return domain.Validation("Password must be at most 72 bytes")
	}
	return nil
}

// ensureUnique rejects a username or email held by an account other than selfID.
func (s *AccountService) ensureUnique(ctx context.Context, selfID, username string, email *string) error {
	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return domain.Storage("Failed to check username", err)
	}
	if a != nil && a.ID != selfID {
		return domain.Conflict("Username already exists")
	}
	if email == nil {
		return nil
	}
	a, err = s.repo.FindByEmail(ctx, *email)
	if err != nil {
		return domain.Storage("Failed to check email", err)
	}
	if a != nil && a.ID != selfID {
		return domain.Conflict("Email already exists")
	}
	return nil
}

func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" || strings.TrimSpace(in.Role) == "" {
		return "", domain.Validation("Username, password, and role are required")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return "", err
	}
	if err := checkNewPassword(in.Password); err != nil {
		return "", err
	}
	if role != domain.RoleAdmin {
		n, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return "", domain.Storage("Failed to count admins", err)
		}
		if n == 0 {
			return "", domain.Validation("An admin account must exist before other accounts")
		}
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureUnique(ctx, "", username, email); err != nil {
		return "", err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", domain.Storage("Failed to hash password", err)
	}
	a := &domain.Account{ID: utils.NewID(), Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, a); err != nil {
		return "", domain.Storage("Failed to create user", err)
	}
	s.log.Info("account created", zap.String("id", a.ID), zap.String("username", username), zap.String("role", string(role)))
	return a.ID, nil
}

// Verify answers the same way for unknown users and wrong passwords.
func (s *AccountService) Verify(ctx context.Context, username, password string) (*domain.Account, error) {
	a, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, domain.Storage("Failed to look up user", err)
	}
	if a == nil {
		utils.BurnPasswordCheck(password)
		return nil, domain.Authentication()
	}
	if !utils.CheckPassword(password, a.PasswordHash) {
		return nil, domain.Authentication()
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Storage("Failed to fetch user", err)
	}
	if a == nil {
		return nil, domain.NotFound("User not found")
	}
	a.PasswordHash = ""
	return a, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Storage("Failed to fetch users", err)
	}
	if list == nil {
		list = []domain.Account{}
	}
	return list, nil
}

// Update changes profile fields. A role or username change drops the account's live sessions.
func (s *AccountService) Update(ctx context.Context, id string, in UpdateAccountInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Role) == "" {
		return domain.Validation("Username and role are required")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return err
	}
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Storage("Failed to fetch user", err)
	}
	if cur == nil {
		return domain.NotFound("User not found")
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureUnique(ctx, id, username, email); err != nil {
		return err
	}
	next := &domain.Account{ID: id, Username: username, Email: email, Role: role}
	if err := s.repo.Update(ctx, next); err != nil {
		return domain.Storage("Failed to update user", err)
	}
	if role != cur.Role || username != cur.Username {
		s.log.Info("account identity changed",
			zap.String("id", id),
			zap.String("role", string(role)), zap.String("prev_role", string(cur.Role)),
			zap.String("username", username), zap.String("prev_username", cur.Username))
		if err := s.sessions.DeleteByAccount(ctx, id); err != nil {
			return domain.Storage("Failed to revoke sessions", err)
		}
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	if current == "" || next == "" {
		return domain.Validation("Current password and new password are required")
	}
	if err := checkNewPassword(next); err != nil {
		return err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Storage("Failed to fetch user", err)
	}
	if a == nil {
		return domain.NotFound("User not found")
	}
	if !utils.CheckPassword(current, a.PasswordHash) {
		return &domain.Error{Kind: domain.KindAuthentication, Msg: "Current password is incorrect"}
	}
	return s.setPassword(ctx, id, next)
}

// ResetPassword replaces a password without the current one; used by the maintenance CLI.
func (s *AccountService) ResetPassword(ctx context.Context, username, next string) error {
	if next == "" {
		return domain.Validation("New password is required")
	}
	if err := checkNewPassword(next); err != nil {
		return err
	}
	a, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.Storage("Failed to fetch user", err)
	}
	if a == nil {
		return domain.NotFound("User not found")
	}
	return s.setPassword(ctx, a.ID, next)
}

func (s *AccountService) setPassword(ctx context.Context, id, pw string) error {
	hash, err := utils.HashPassword(pw)
	if err != nil {
		return domain.Storage("Failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return domain.Storage("Failed to update password", err)
	}
	return nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return domain.Storage("Failed to delete user", err)
	}
	s.log.Info("account deleted", zap.String("id", id))
	if err := s.sessions.DeleteByAccount(ctx, id); err != nil {
		return domain.Storage("Failed to revoke sessions", err)
	}
	return nil
}

var ErrNoInitialPassword = errors.New("admin.initialPassword (ADMIN_PASSWORD) must be set to seed the first admin")

// Bootstrap seeds one admin when no admin exists. It reports whether it did.
func (s *AccountService) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, domain.Storage("Failed to count admins", err)
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		return false, ErrNoInitialPassword
	}
	if strings.TrimSpace(username) == "" {
		username = "admin"
	}
	if _, err := s.Create(ctx, CreateAccountInput{Username: username, Password: password, Role: string(domain.RoleAdmin)}); err != nil {
		return false, err
	}
	s.log.Info("seeded initial admin account", zap.String("username", username))
	return true, nil
}
