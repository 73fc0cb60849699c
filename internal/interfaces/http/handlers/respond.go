// Package handlers contains the HTTP request handlers.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clipgate/clipgate/pkg/errors"
)

// sendError writes the typed error as a JSON problem response. Backpressure
// denials carry a Retry-After header when the policy knows the wait.
func sendError(c *gin.Context, err error) {
	status := errors.HTTPStatusOf(err)
	code := errors.CodeOf(err)

	if coreErr, ok := err.(errors.CoreError); ok {
		if ra := coreErr.RetryAfter(); ra > 0 {
			c.Header("Retry-After", strconv.Itoa(int(ra.Seconds()+0.5)))
		}
	}

	c.JSON(status, gin.H{
		"error":             string(code),
		"error_description": err.Error(),
	})
}

func sendSuccess(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}
