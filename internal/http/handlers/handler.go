package handlers

import (
	"net/http"
	"strconv"

	"taskapi/internal/domain"
	"taskapi/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Tasks repository.TaskRepository
}

func NewHandler(tasks repository.TaskRepository) *Handler {
	return &Handler{Tasks: tasks}
}

// taskID reads the :id segment. A non-numeric segment is answered with a
// violation and ok is false.
func taskID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		violations(c, domain.NewViolation("Invalid task id", "id", raw))
		return 0, false
	}
	return id, true
}

func violations(c *gin.Context, v ...domain.ConstraintViolation) {
	c.JSON(http.StatusBadRequest, v)
}

// empty answers with a status code and no body.
func empty(c *gin.Context, code int) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.AbortWithStatus(code)
}
