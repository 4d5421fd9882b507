// Package httperr shapes handler error responses and records the cause on
// the gin error stack so middleware can observe it.
package httperr

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AbortWithError writes the public error body and aborts the request. When
// err is non-nil it is attached to the context for the logging middleware;
// the client only ever sees msg.
func AbortWithError(c *gin.Context, status int, err error, msg string) {
	resp := Response{Status: status}
	resp.Error.Message = msg

	if err != nil {
		_ = c.Error(gin.Error{
			Err:  err,
			Type: gin.ErrorTypePublic,
			Meta: resp,
		})
	}
	c.AbortWithStatusJSON(status, resp)
}
