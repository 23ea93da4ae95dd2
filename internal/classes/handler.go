package classes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/registro/backend/internal/middleware"
	"github.com/registro/backend/pkg/response"
)

// PresenceRequest is the body for POST /api/classes/:id/presence.
type PresenceRequest struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Hour      *int   `json:"hour"`
	Status    string `json:"status"`
}

// GradeRequest is the body for POST /api/classes/:id/grade.
type GradeRequest struct {
	StudentID string `json:"studentId"`
	Subject   string `json:"subject"`
	Grade     *int   `json:"grade"`
	Comment   string `json:"comment"`
}

// ViewerCounter reports how many live sessions watch a class.
type ViewerCounter interface {
	ViewerCount(classID string) int
}

// Handler handles class register HTTP endpoints.
type Handler struct {
	coord   *Coordinator
	viewers ViewerCounter
	logger  *zap.Logger
}

// NewHandler creates a classes handler.
func NewHandler(coord *Coordinator, viewers ViewerCounter, logger *zap.Logger) *Handler {
	return &Handler{coord: coord, viewers: viewers, logger: logger}
}

// GetSnapshot handles GET /api/classes/:id.
func (h *Handler) GetSnapshot(c *gin.Context) {
	snap, err := h.coord.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, snap)
}

// Viewers handles GET /api/classes/:id/viewers.
func (h *Handler) Viewers(c *gin.Context) {
	classID := c.Param("id")
	response.OK(c, gin.H{"classId": classID, "count": h.viewers.ViewerCount(classID)})
}

// RecordPresence handles POST /api/classes/:id/presence. The actor is the authenticated user.
func (h *Handler) RecordPresence(c *gin.Context) {
	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ev, err := h.coord.HandleAttendanceChange(c.Request.Context(), AttendanceChange{
		ClassID:   c.Param("id"),
		StudentID: req.StudentID,
		Date:      req.Date,
		Hour:      req.Hour,
		Status:    req.Status,
		ActorID:   c.GetString(middleware.ContextUserID),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"payload": ev})
}

// RecordGrade handles POST /api/classes/:id/grade.
func (h *Handler) RecordGrade(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ev, err := h.coord.HandleGradeChange(c.Request.Context(), GradeChange{
		ClassID:   c.Param("id"),
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Grade:     req.Grade,
		Comment:   req.Comment,
		ActorID:   c.GetString(middleware.ContextUserID),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"payload": ev})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrPersistence):
		response.Internal(c, "db")
	default:
		h.logger.Error("class request", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
