package models

// Task is a to-do item owned by a single user.
type Task struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Title      string `json:"title"`
	IsComplete bool   `json:"is_complete"`
}
