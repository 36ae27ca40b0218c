package handlers

import (
	"crypto/subtle"
	"net/http"

	"taskapi/internal/logger"

	"github.com/gin-gonic/gin"
)

// ShutdownHandler stops the server on request when the caller knows the
// shared secret.
type ShutdownHandler struct {
	secret  []byte
	trigger func()
}

func NewShutdownHandler(secret string, trigger func()) *ShutdownHandler {
	return &ShutdownHandler{secret: []byte(secret), trigger: trigger}
}

// Shutdown handles POST /shutdown?token=. The response is written before the
// trigger fires.
func (h *ShutdownHandler) Shutdown(c *gin.Context) {
	token := []byte(c.Query("token"))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(token, h.secret) != 1 {
		logger.Warn("rejected shutdown request", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid shutdown token"})
		return
	}

	logger.Info("shutdown requested", "client_ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"status": "shutting down"})
	c.Writer.Flush()
	go h.trigger()
}
