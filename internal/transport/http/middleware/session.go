package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/core/auth"
	"portfolio-api/internal/domain"
	resp "portfolio-api/internal/transport/http/response"
)

const keyPrincipal = "principal"

// SessionResolver turns a cookie value into the principal it was issued for.
type SessionResolver interface {
	Validate(ctx context.Context, cookie string) (*domain.Principal, error)
}

// Session resolves the session cookie on every request. A missing or invalid cookie
// leaves the request anonymous; only a store failure aborts.
func Session(r SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}
		p, err := r.Validate(c.Request.Context(), cookie)
		switch {
		case err == nil:
			c.Set(keyPrincipal, p)
		case errors.Is(err, domain.ErrUnauthenticated):
		default:
			resp.Fail(c, err)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller resolved by Session, or nil.
func PrincipalFrom(c *gin.Context) *domain.Principal {
	v, ok := c.Get(keyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*domain.Principal)
	return p
}

func gate(check func(*domain.Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(PrincipalFrom(c)); err != nil {
			resp.Fail(c, err)
			return
		}
		c.Next()
	}
}

func RequireAuthenticated() gin.HandlerFunc  { return gate(auth.Authenticated) }
func RequireAdmin() gin.HandlerFunc          { return gate(auth.Admin) }
func RequireBloggerOrAdmin() gin.HandlerFunc { return gate(auth.BloggerOrAdmin) }
