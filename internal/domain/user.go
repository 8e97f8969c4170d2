// Package domain defines the core entities of the recipe service.
package domain

import "time"

// User represents an authenticated user account in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Stored hashed, never serialized
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// IsAdmin returns true if the user has administrative privileges.
// Superusers are automatically staff, regardless of the staff flag.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.IsStaff
}
