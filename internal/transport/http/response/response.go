package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type MessageBody struct {
	Message string `json:"message"`
}

type CreatedBody struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func Error(msg string) ErrorBody     { return ErrorBody{Error: msg} }
func Message(msg string) MessageBody { return MessageBody{Message: msg} }

// Fail aborts with the status for err. Server-side failures get a generic message and the
// cause is attached to the context for the access log.
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status >= 500 {
		msg = msgInternal
		if status == http.StatusGatewayTimeout {
			msg = MsgTimeout
		}
		if cause := errors.Unwrap(err); cause != nil {
			err = fmt.Errorf("%w: %v", err, cause)
		}
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Error(msg))
}

// Abort stops the chain with a plain error body.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(msg))
}
