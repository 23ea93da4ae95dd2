package models

// Event names pushed to class viewers.
const (
	EventPresenceUpdated = "presence_updated"
	EventGradeUpdated    = "grade_updated"
)

// ChangeEvent describes one committed write. Implementations are value types
// and are never mutated after construction.
type ChangeEvent interface {
	ClassID() string
	EventName() string
}

// AttendanceChanged is broadcast after an attendance row commits.
type AttendanceChanged struct {
	Attendance
}

func (e AttendanceChanged) ClassID() string   { return e.Attendance.ClassID }
func (e AttendanceChanged) EventName() string { return EventPresenceUpdated }

// GradeChanged is broadcast after a grade row commits.
type GradeChanged struct {
	Grade
}

func (e GradeChanged) ClassID() string   { return e.Grade.ClassID }
func (e GradeChanged) EventName() string { return EventGradeUpdated }
