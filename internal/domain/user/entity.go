package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin" // Manages shifts, checkpoints and assignments
	RoleGuard Role = "guard" // Patrols checkpoints and records attendance
)

type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash *string
	Role         Role
	IsActive     bool

	// At most one standing checkpoint assignment per guard.
	AssignedCheckpointID *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsGuard checks if user is a guard
func (u *User) IsGuard() bool {
	return u.Role == RoleGuard
}

// IsAssignable reports whether the user may hold a checkpoint assignment.
func (u *User) IsAssignable() bool {
	return u.IsGuard() && u.IsActive
}
