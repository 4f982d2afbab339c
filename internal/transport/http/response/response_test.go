package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"portfolio-api/internal/domain"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Validation("x"), http.StatusBadRequest},
		{domain.Conflict("x"), http.StatusConflict},
		{domain.Authentication(), http.StatusUnauthorized},
		{domain.Unauthenticated("x"), http.StatusUnauthorized},
		{domain.Forbidden("x"), http.StatusForbidden},
		{domain.NotFound("x"), http.StatusNotFound},
		{domain.LastAdmin(), http.StatusBadRequest},
		{domain.Storage("x", errors.New("io")), http.StatusInternalServerError},
		{errors.New("foreign"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{domain.Storage("x", fmt.Errorf("query: %w", context.DeadlineExceeded)), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestFail_HidesStorageCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, domain.Storage("Failed to fetch users", errors.New("disk on fire")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Contains(t, c.Errors.String(), "disk on fire")
}

func TestFail_ClientError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, domain.Conflict("Username already exists"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Username already exists"}`, w.Body.String())
	assert.Empty(t, c.Errors)
	assert.True(t, c.IsAborted())
}

func TestFail_DeadlineIsGatewayTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, domain.Storage("Failed to fetch posts", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.JSONEq(t, `{"error":"Request timed out"}`, w.Body.String())
	assert.Contains(t, c.Errors.String(), "deadline exceeded")
}
