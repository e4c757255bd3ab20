// Package models defines the persisted document types of the attendance
// ledger: users, the session singleton, per-date attendance, designation
// history and settings. All types are plain JSON-serializable structs; the
// docstore owns persistence.
package models

import (
	"slices"
	"time"
)

// Role classifies a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is one account in the user list document. Accounts are never deleted,
// only disabled. Admins implicitly see all areas; AssignedAreas is ignored
// for them.
type User struct {
	ID            string    `json:"id"`
	UserName      string    `json:"username"`
	Role          Role      `json:"role"`
	Salt          []byte    `json:"salt"`
	PasswordHash  []byte    `json:"passwordHash"`
	AssignedAreas []string  `json:"assignedAreas"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CanAccessArea reports whether the user may see or edit the given area.
func (u *User) CanAccessArea(area string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return slices.Contains(u.AssignedAreas, area)
}
