package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"portfolio-api/internal/domain"
	"portfolio-api/internal/service"
	"portfolio-api/internal/transport/http/ez"
	mdw "portfolio-api/internal/transport/http/middleware"
	resp "portfolio-api/internal/transport/http/response"
)

// Sessions is the part of the session service the HTTP layer drives.
type Sessions interface {
	Login(ctx context.Context, username, password string) (string, *domain.Session, error)
	Logout(ctx context.Context, cookie string) error
}

type PasswordChanger interface {
	ChangePassword(ctx context.Context, id, current, next string) error
}

type CookieOptions struct {
	Name   string
	Secure bool
}

type LoginLimit struct {
	RPS   float64
	Burst int
}

// AuthHandler serves login, logout, check-auth and change-password under /api/admin.
type AuthHandler struct {
	sessions Sessions
	accounts PasswordChanger
	cookie   CookieOptions
	limit    LoginLimit
}

func NewAuthHandler(s Sessions, a PasswordChanger, cookie CookieOptions, limit LoginLimit) *AuthHandler {
	return &AuthHandler{sessions: s, accounts: a, cookie: cookie, limit: limit}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginOut struct {
	Message  string      `json:"message"`
	Role     domain.Role `json:"role"`
	Username string      `json:"username"`
}

type checkAuthOut struct {
	Authenticated bool        `json:"authenticated"`
	Role          domain.Role `json:"role,omitempty"`
	Username      string      `json:"username,omitempty"`
}

type changePasswordIn struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	// cross-site frontends need SameSite=None, which browsers only accept with Secure
	if h.cookie.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) MountAdmin(admin *gin.RouterGroup) {
	login := admin.Group("")
	if h.limit.RPS > 0 {
		login.Use(mdw.RateLimitPerIP(rate.Limit(h.limit.RPS), h.limit.Burst, "Too many login attempts, please try again later"))
	}
	ez.Register(login, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			cookie, sess, err := h.sessions.Login(c.Request.Context(), in.Username, in.Password)
			switch {
			case err == nil:
				mdw.ObserveLogin("ok")
			case errors.Is(err, domain.ErrAuthentication), errors.Is(err, domain.ErrValidation):
				mdw.ObserveLogin("denied")
				return loginOut{}, err
			default:
				mdw.ObserveLogin("error")
				return loginOut{}, err
			}
			h.setCookie(c, cookie, int(sess.ExpiresAt.Sub(sess.CreatedAt).Seconds()))
			return loginOut{Message: "Login successful", Role: sess.Role, Username: sess.Username}, nil
		},
	})

	ez.Register(admin, ez.Action[struct{}, resp.MessageBody]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MessageBody, error) {
			// the browser forgets the cookie even when the store cannot be reached
			h.setCookie(c, "", -1)
			if cookie, err := c.Cookie(h.cookie.Name); err == nil {
				if err := h.sessions.Logout(c.Request.Context(), cookie); err != nil {
					return resp.MessageBody{}, err
				}
			}
			return resp.Message("Logged out successfully"), nil
		},
	})

	ez.Register(admin, ez.Action[struct{}, checkAuthOut]{
		Method: http.MethodGet,
		Path:   "/check-auth",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (checkAuthOut, error) {
			p := mdw.PrincipalFrom(c)
			if p == nil {
				return checkAuthOut{}, nil
			}
			return checkAuthOut{Authenticated: true, Role: p.Role, Username: p.Username}, nil
		},
	})

	self := admin.Group("", mdw.RequireAuthenticated())
	ez.Register(self, ez.Action[changePasswordIn, resp.MessageBody]{
		Method: http.MethodPost,
		Path:   "/change-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *changePasswordIn) (resp.MessageBody, error) {
			p := mdw.PrincipalFrom(c)
			if err := h.accounts.ChangePassword(c.Request.Context(), p.AccountID, in.CurrentPassword, in.NewPassword); err != nil {
				return resp.MessageBody{}, err
			}
			return resp.Message("Password changed successfully"), nil
		},
	})
}

var _ Sessions = (*service.SessionService)(nil)
