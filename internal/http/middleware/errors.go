package middleware

import (
	"net/http"

	"taskapi/internal/logger"

	"github.com/gin-gonic/gin"
)

// GenericErrorBody is the only detail a client sees for an unexpected failure.
var GenericErrorBody = gin.H{"error": "An error occurred"}

// failureStatus maps an unexpected failure to a status code. Writes answer
// 400 and reads answer 500.
func failureStatus(method string) int {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Errors renders errors that handlers attached with c.Error and did not
// answer themselves.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		logger.WithContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", c.Errors.String(),
		)
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(failureStatus(c.Request.Method), GenericErrorBody)
	}
}

// Recovery turns a panic into the same response an attached error gets.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithContext(c.Request.Context()).Error("panic recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		c.AbortWithStatusJSON(failureStatus(c.Request.Method), GenericErrorBody)
	})
}
