package models

import "time"

// User represents a user in the system
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"` // salt$digest, never serialized
	RegisteredAt   time.Time `json:"registered_at"`
	IsActive       bool      `json:"is_active"`
}
