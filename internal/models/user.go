package models

// Role represents a user's role in the register.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User is a teacher or student. Students belong to exactly one class.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Password string  `json:"-"`
	Role     Role    `json:"role"`
	ClassID  *string `json:"classId,omitempty"`
}

// UserPublic is User without the password hash, for API responses.
type UserPublic struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	ClassID *string `json:"classId,omitempty"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:      u.ID,
		Name:    u.Name,
		Role:    u.Role,
		ClassID: u.ClassID,
	}
}
