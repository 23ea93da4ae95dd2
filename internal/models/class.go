package models

// ClassSnapshot is the full state of one class used to hydrate a new viewer.
type ClassSnapshot struct {
	ID        string       `json:"id"`
	Students  []UserPublic `json:"students"`
	Presences []Attendance `json:"presences"`
	Grades    []Grade      `json:"grades"`
}
