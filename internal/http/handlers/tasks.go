package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"taskapi/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const dateFormatMessage = "Date format must be YYYY-MM-DD"

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	t, ok := h.bindTask(c)
	if !ok {
		return
	}

	created, err := h.Tasks.Create(c.Request.Context(), t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	t, found, err := h.Tasks.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !found {
		empty(c, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, t)
}

// ListTasks handles GET /api/tasks. Without query parameters every task is
// returned; with any of them the date range and status filter applies.
func (h *Handler) ListTasks(c *gin.Context) {
	filter, filtered, problems := parseFilter(c)
	if len(problems) > 0 {
		violations(c, problems...)
		return
	}

	var (
		tasks []*domain.Task
		err   error
	)
	if filtered {
		tasks, err = h.Tasks.ListBetweenDates(c.Request.Context(), filter)
	} else {
		tasks, err = h.Tasks.List(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// UpdateTask handles PUT /api/tasks/:id. The stored task is replaced
// wholesale except for its id and creation date.
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	t, ok := h.bindTask(c)
	if !ok {
		return
	}
	t.ID = id

	ctx := c.Request.Context()
	// Get and Update run on separate connections; a concurrent delete in
	// between surfaces as ErrNotFound from Update.
	if _, found, err := h.Tasks.Get(ctx, id); err != nil {
		_ = c.Error(err)
		return
	} else if !found {
		empty(c, http.StatusNotFound)
		return
	}

	updated, err := h.Tasks.Update(ctx, t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, found, err := h.Tasks.Get(ctx, id); err != nil {
		_ = c.Error(err)
		return
	} else if !found {
		empty(c, http.StatusNotFound)
		return
	}

	if err := h.Tasks.Delete(ctx, id); err != nil {
		_ = c.Error(err)
		return
	}
	empty(c, http.StatusNoContent)
}

// bindTask decodes and validates the request body. When ok is false the
// response has been written or an error attached.
func (h *Handler) bindTask(c *gin.Context) (*domain.Task, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		_ = c.Error(fmt.Errorf("read body: %w", err))
		return nil, false
	}

	var t domain.Task
	if err := binding.JSON.BindBody(raw, &t); err != nil {
		var (
			dateErr   *domain.DateError
			statusErr *domain.StatusError
		)
		switch {
		case errors.As(err, &dateErr):
			violations(c, domain.NewViolation(dateFormatMessage, fieldHolding(raw, dateErr.Value, "due_date"), dateErr.Value))
		case errors.As(err, &statusErr):
			violations(c, domain.NewViolation(statusErr.Error(), "status", statusErr.Value))
		default:
			_ = c.Error(fmt.Errorf("decode task: %w", err))
		}
		return nil, false
	}

	// id and creation_date belong to the store.
	t.ID = 0
	t.CreationDate = nil

	if v := t.Validate(); len(v) > 0 {
		violations(c, v...)
		return nil, false
	}
	return &t, true
}

// fieldHolding returns the top-level key of doc whose value is token,
// or fallback when none matches.
func fieldHolding(doc []byte, token, fallback string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return fallback
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		var s string
		if json.Unmarshal(v, &s) == nil && s == token {
			return k
		}
		if string(v) == token {
			return k
		}
	}
	return fallback
}

// parseFilter reads startDate, endDate and status. filtered reports whether
// any of them was present.
func parseFilter(c *gin.Context) (f domain.TaskFilter, filtered bool, problems []domain.ConstraintViolation) {
	for _, name := range []string{"startDate", "endDate"} {
		v, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		filtered = true
		d, err := domain.ParseDate(v)
		if err != nil {
			problems = append(problems, domain.NewViolation(dateFormatMessage, name, v))
			continue
		}
		if name == "startDate" {
			f.Start = &d
		} else {
			f.End = &d
		}
	}

	if v, ok := c.GetQuery("status"); ok {
		filtered = true
		for _, token := range strings.Split(v, ",") {
			token = strings.TrimSpace(token)
			s, err := domain.ParseStatus(token)
			if err != nil {
				problems = append(problems, domain.NewViolation(err.Error(), "status", token))
				continue
			}
			f.Statuses = append(f.Statuses, s)
		}
	}
	return f, filtered, problems
}
