package models

// Grade is one persisted grade entry.
type Grade struct {
	ID        int64  `json:"id"`
	ClassID   string `json:"classId"`
	StudentID string `json:"studentId"`
	Subject   string `json:"subject"`
	Grade     int    `json:"grade"`
	Comment   string `json:"comment"`
	ByUser    string `json:"byUser"`
}
