package models

import "time"

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.register", "lesson.create"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Subject   *string   `json:"subject,omitempty"` // Username that triggered the event, if any
	CreatedAt time.Time `json:"createdAt"`
}
