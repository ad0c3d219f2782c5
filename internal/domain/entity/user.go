// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record. Email is the login handle and is unique across all users.
type User struct {
	ID           uuid.UUID // Assigned by the store at creation and never changed afterwards.
	Name         string    // Display name.
	Email        string    // Login handle, unique across all users.
	PasswordHash string    // Self-describing hasher output. Never the plaintext.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}

// Clone returns a copy that can be mutated without touching the original.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u

	return &clone
}
