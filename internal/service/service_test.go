package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio-api/internal/core/auth"
	"portfolio-api/internal/repo"
	"portfolio-api/internal/testkit"
)

type fixture struct {
	db       *gorm.DB
	accounts *AccountService
	sessions *SessionService
	posts    *PostService
	store    *repo.SessionRepo
	now      time.Time
	root     string
}

// newFixture returns services over a fresh database holding one admin, "root".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newEmptyFixture(t)
	_, err := f.accounts.Bootstrap(context.Background(), "root", "root-pw")
	require.NoError(t, err)
	root, err := repo.NewAccountRepo(f.db).FindByUsername(context.Background(), "root")
	require.NoError(t, err)
	f.root = root.ID
	return f
}

func newEmptyFixture(t *testing.T) *fixture {
	t.Helper()
	db := testkit.NewDB(t)
	f := &fixture{db: db, store: repo.NewSessionRepo(db), now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	f.accounts = NewAccountService(repo.NewAccountRepo(db), f.store, nil)
	f.sessions = NewSessionService(f.accounts, f.store, &auth.Signer{Secret: []byte("test-secret"), Issuer: "test"}, time.Hour, nil)
	f.sessions.Now = func() time.Time { return f.now }
	f.posts = NewPostService(repo.NewPostRepo(db), nil, 0, nil)
	f.posts.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) mustCreate(t *testing.T, username, password, role string) string {
	t.Helper()
	id, err := f.accounts.Create(context.Background(), CreateAccountInput{Username: username, Password: password, Role: role})
	require.NoError(t, err)
	return id
}
