package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/isdelr/microlearn-be/internal/models"
)

// Event types recorded by the services.
const (
	EventUserRegister = "user.register"
	EventUserLogin    = "user.login"
	EventLessonCreate = "lesson.create"
	EventLessonSeed   = "lesson.seed"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, subject *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService provides business logic for the activity log.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, subject *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Subject:   subject,
		CreatedAt: s.now().UTC(),
	}

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO events (id, type, level, message, subject, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, event.ID, event.Type, event.Level, event.Message, event.Subject, event.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// GetRecentEvents retrieves the most recent events from the database, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, type, level, message, subject, created_at FROM events ORDER BY rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var subject sql.NullString
		var createdAt string
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &subject, &createdAt); err != nil {
			return nil, err
		}
		if subject.Valid {
			event.Subject = &subject.String
		}
		if event.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("event %s has bad created_at: %w", event.ID, err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
