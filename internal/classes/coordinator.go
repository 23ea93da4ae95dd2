package classes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/registro/backend/internal/models"
)

var (
	// ErrInvalidRequest means a required field is missing or malformed. The store was not touched.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPersistence means the store rejected or could not take the write. Nothing was broadcast.
	ErrPersistence = errors.New("persistence error")
)

const (
	dateLayout = "2006-01-02"

	// appendTimeout bounds a store append. Appends ignore caller
	// cancellation: a row that commits is always broadcast.
	appendTimeout = 5 * time.Second
)

// Store is the durable side of the register. Appends fill in the
// store-assigned ID on success.
type Store interface {
	AppendAttendance(ctx context.Context, a *models.Attendance) error
	AppendGrade(ctx context.Context, g *models.Grade) error
	ReadClassSnapshot(ctx context.Context, classID string) (*models.ClassSnapshot, error)
}

// Broadcaster fans an event out to the viewers of a class. It never fails
// the caller; delivery problems stay inside the broadcaster.
type Broadcaster interface {
	BroadcastToClass(classID string, event string, payload interface{})
}

// AttendanceChange is a request to mark a student for one hour of one day.
type AttendanceChange struct {
	ClassID   string
	StudentID string
	Date      string
	Hour      *int
	Status    string
	ActorID   string
}

// GradeChange is a request to record a grade.
type GradeChange struct {
	ClassID   string
	StudentID string
	Subject   string
	Grade     *int
	Comment   string
	ActorID   string
}

// Coordinator commits a change, then notifies the class. A viewer never sees
// an event whose write did not commit. The notify half is best-effort and is
// not retried.
type Coordinator struct {
	store       Store
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewCoordinator creates a write-then-broadcast coordinator.
func NewCoordinator(store Store, broadcaster Broadcaster, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{store: store, broadcaster: broadcaster, logger: logger}
}

// HandleAttendanceChange validates, appends and broadcasts an attendance mark.
func (c *Coordinator) HandleAttendanceChange(ctx context.Context, req AttendanceChange) (*models.AttendanceChanged, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	row := &models.Attendance{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Date:      req.Date,
		Hour:      *req.Hour,
		Status:    req.Status,
		ByUser:    req.ActorID,
	}
	wctx, cancel := appendContext(ctx)
	defer cancel()
	if err := c.store.AppendAttendance(wctx, row); err != nil {
		c.logger.Error("append attendance", zap.String("class_id", req.ClassID), zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	ev := models.AttendanceChanged{Attendance: *row}
	c.broadcaster.BroadcastToClass(ev.ClassID(), ev.EventName(), ev)
	c.logger.Debug("attendance committed", zap.Int64("id", row.ID), zap.String("class_id", row.ClassID))
	return &ev, nil
}

// HandleGradeChange validates, appends and broadcasts a grade.
func (c *Coordinator) HandleGradeChange(ctx context.Context, req GradeChange) (*models.GradeChanged, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	row := &models.Grade{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Grade:     *req.Grade,
		Comment:   req.Comment,
		ByUser:    req.ActorID,
	}
	wctx, cancel := appendContext(ctx)
	defer cancel()
	if err := c.store.AppendGrade(wctx, row); err != nil {
		c.logger.Error("append grade", zap.String("class_id", req.ClassID), zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	ev := models.GradeChanged{Grade: *row}
	c.broadcaster.BroadcastToClass(ev.ClassID(), ev.EventName(), ev)
	c.logger.Debug("grade committed", zap.Int64("id", row.ID), zap.String("class_id", row.ClassID))
	return &ev, nil
}

// Snapshot reads the full state of a class.
func (c *Coordinator) Snapshot(ctx context.Context, classID string) (*models.ClassSnapshot, error) {
	if blank(classID) {
		return nil, missing("classId")
	}
	snap, err := c.store.ReadClassSnapshot(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return snap, nil
}

func (r AttendanceChange) validate() error {
	switch {
	case blank(r.ClassID):
		return missing("classId")
	case blank(r.StudentID):
		return missing("studentId")
	case blank(r.Date):
		return missing("date")
	case r.Hour == nil:
		return missing("hour")
	case blank(r.Status):
		return missing("status")
	case blank(r.ActorID):
		return missing("byUser")
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if *r.Hour < 1 {
		return fmt.Errorf("%w: hour must be positive", ErrInvalidRequest)
	}
	return nil
}

func (r GradeChange) validate() error {
	switch {
	case blank(r.ClassID):
		return missing("classId")
	case blank(r.StudentID):
		return missing("studentId")
	case blank(r.Subject):
		return missing("subject")
	case r.Grade == nil:
		return missing("grade")
	case blank(r.ActorID):
		return missing("byUser")
	}
	return nil
}

func appendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
}
