package service

import "github.com/DKhorkov/FastApi/internal/models"

// Decision is the outcome of an ownership check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows identity to act on task only when it owns it.
func Authorize(task *models.Task, identity *models.User) Decision {
	if task == nil || identity == nil {
		return Deny
	}
	if task.UserID != identity.ID {
		return Deny
	}
	return Allow
}
