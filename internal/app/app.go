// Package app wires configuration, storage, services and the HTTP engine together.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"portfolio-api/internal/core/auth"
	"portfolio-api/internal/core/cache"
	"portfolio-api/internal/core/config"
	"portfolio-api/internal/core/database"
	"portfolio-api/internal/core/logger"
	"portfolio-api/internal/domain"
	"portfolio-api/internal/feature/sitemap"
	"portfolio-api/internal/repo"
	"portfolio-api/internal/service"
	"portfolio-api/internal/transport/http/handler"
	"portfolio-api/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Accounts *service.AccountService
	Sessions *service.SessionService
	Posts    *service.PostService
	Sitemap  *sitemap.Generator

	cache *cache.Cache
}

// OpenDB opens the configured database with gorm logging routed into l.
func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	w, err := logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Writer:             w,
	})
}

// New builds the services on top of db. Redis is connected when redis.addr is set.
func New(cfg *config.Config, l *zap.Logger, db *gorm.DB) (*App, error) {
	a := &App{Cfg: cfg, Log: l, DB: db}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		a.cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.cache.Ping(ctx); err != nil {
			_ = a.cache.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		rdb = a.cache.RDB
	}

	var store domain.SessionStore = repo.NewSessionRepo(db)
	if cfg.Session.Store == "redis" {
		if rdb == nil {
			return nil, errors.New("session.store=redis requires redis.addr")
		}
		store = repo.NewRedisSessionStore(rdb)
	}

	a.Accounts = service.NewAccountService(repo.NewAccountRepo(db), store, l.Named("accounts"))
	signer := &auth.Signer{Secret: []byte(cfg.Session.Secret), Issuer: cfg.Session.Issuer}
	ttl := time.Duration(cfg.Session.TTLMin) * time.Minute
	a.Sessions = service.NewSessionService(a.Accounts, store, signer, ttl, l.Named("sessions"))
	a.Posts = service.NewPostService(repo.NewPostRepo(db), a.cache, time.Duration(cfg.Redis.PostCacheTTLSec)*time.Second, l.Named("posts"))
	a.Sitemap = &sitemap.Generator{BaseURL: cfg.App.PublicURL, StaticPaths: cfg.Sitemap.StaticPaths, Posts: a.Posts}
	return a, nil
}

// Init migrates the schema when enabled and seeds the first admin.
func (a *App) Init(ctx context.Context) error {
	if a.Cfg.DB.AutoMigrate {
		if err := repo.Migrate(a.DB); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		a.Log.Info("automigrate done")
	}
	seeded, err := a.Accounts.Bootstrap(ctx, a.Cfg.Admin.Username, a.Cfg.Admin.InitialPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if seeded {
		a.Log.Info("initial admin created", zap.String("username", a.Cfg.Admin.Username))
	}
	return nil
}

func (a *App) Engine() *gin.Engine {
	c := a.Cfg
	reg := router.NewRegistry(
		handler.NewAuthHandler(a.Sessions, a.Accounts,
			handler.CookieOptions{Name: c.Session.CookieName, Secure: c.Session.Secure},
			handler.LoginLimit{RPS: c.Limits.LoginRPS, Burst: c.Limits.LoginBurst}),
		handler.NewUserHandler(a.Accounts),
		handler.NewPostHandler(a.Posts),
		handler.NewSitemapHandler(a.Sitemap, c.Sitemap.Path),
	)
	return router.NewAPIEngine(a.Log, router.Options{
		CookieName:     c.Session.CookieName,
		AllowedOrigins: c.CORS.AllowedOrigins,
		RPS:            c.Limits.RPS,
		Burst:          c.Limits.Burst,
		MaxConcurrent:  c.Limits.MaxConcurrent,
		MaxBodyBytes:   c.Limits.MaxBodyBytes,
		Timeout:        time.Duration(c.Limits.RequestTimeoutSec) * time.Second,
	}, a.Sessions, reg)
}

func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
