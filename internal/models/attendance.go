package models

// Attendance is one persisted presence mark. Rows are append-only; the
// latest row for (student, date, hour) is the effective mark.
type Attendance struct {
	ID        int64  `json:"id"`
	ClassID   string `json:"classId"`
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
	Status    string `json:"status"`
	ByUser    string `json:"byUser"`
}
