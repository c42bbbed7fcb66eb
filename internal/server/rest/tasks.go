package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type taskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DateTime    *time.Time `json:"date_time"`
}

type completeRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DateTime    *time.Time `json:"date_time"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DateTime:    t.DateTime,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// taskID rejects ids that are not UUIDs before they reach the database.
// They are reported as missing, same as another tenant's task.
func taskID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusNotFound, "not_found", "resource not found")
		return "", false
	}
	return id, true
}

func (h *handler) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "title is required")
		return
	}

	t, err := h.deps.Tasks.Create(c.Request.Context(), subjectOf(c), &models.Task{
		Title:       req.Title,
		Description: req.Description,
		DateTime:    req.DateTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, toTaskResponse(t))
}

func (h *handler) listTasks(c *gin.Context) {
	list, err := h.deps.Tasks.List(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskResponse(t))
	}
	respondOK(c, http.StatusOK, out)
}

func (h *handler) getTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	t, err := h.deps.Tasks.Get(c.Request.Context(), subjectOf(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTaskResponse(t))
}

func (h *handler) setTaskCompleted(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "completed is required")
		return
	}
	if err := h.deps.Tasks.SetCompleted(c.Request.Context(), subjectOf(c), id, *req.Completed); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := h.deps.Tasks.Delete(c.Request.Context(), subjectOf(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) getSettings(c *gin.Context) {
	s, err := h.deps.Settings.Get(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"language":     s.Language,
		"theme":        s.Theme,
		"accent_color": s.AccentColor,
	})
}
