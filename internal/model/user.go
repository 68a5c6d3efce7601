package model

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleProfessor
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Subjects     []string  `json:"subjects,omitempty"` // professors only
	CreatedAt    time.Time `json:"createdAt"`
}

// Teaches reports whether the professor offers the given subject.
// An empty subject list means the professor has not restricted themselves.
func (u *User) Teaches(subject string) bool {
	if len(u.Subjects) == 0 {
		return true
	}
	want := lowerTrim(subject)
	for _, s := range u.Subjects {
		if lowerTrim(s) == want {
			return true
		}
	}
	return false
}
