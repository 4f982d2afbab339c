package response

import (
	"context"
	"errors"
	"net/http"

	"portfolio-api/internal/domain"
)

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:      http.StatusBadRequest,
	domain.KindConflict:        http.StatusConflict,
	domain.KindAuthentication:  http.StatusUnauthorized,
	domain.KindUnauthenticated: http.StatusUnauthorized,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindLastAdmin:       http.StatusBadRequest,
	domain.KindStorage:         http.StatusInternalServerError,
}

// StatusOf maps an error to its HTTP status. A blown request deadline is 504 whatever
// wraps it; other foreign errors are 500.
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if s, ok := kindStatus[domain.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

const (
	msgInternal = "Internal server error"
	MsgTimeout  = "Request timed out"
)
