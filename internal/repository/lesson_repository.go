package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/microlearn-be/internal/models"
)

// LessonFilter narrows a lesson lookup. Empty fields impose no constraint and
// the present ones are combined with AND. Matching is exact and case-sensitive.
type LessonFilter struct {
	TutorID  string
	Category string
	Format   models.Format
}

// LessonRepository is the lesson document store.
type LessonRepository interface {
	InsertOne(ctx context.Context, lesson *models.Lesson) (string, error)
	InsertMany(ctx context.Context, lessons []models.Lesson) ([]string, error)
	Find(ctx context.Context, filter LessonFilter) ([]models.Lesson, error)
	FindOne(ctx context.Context, id string) (*models.Lesson, error)
}

// SQLLessonRepository stores lessons in the lessons table with the
// format-specific payload kept as JSON.
type SQLLessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new SQLLessonRepository.
func NewLessonRepository(db *sql.DB) *SQLLessonRepository {
	return &SQLLessonRepository{db: db}
}

const insertLessonSQL = `
	INSERT INTO lessons(id, title, description, category, tutor_id, format, created_at,
	                    payload_json, file_data, views, completions, rating, status, duration)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLesson(ctx context.Context, ex execer, lesson *models.Lesson) error {
	payloadJSON, err := models.EncodePayload(lesson.Payload)
	if err != nil {
		return err
	}

	var fileData []byte
	if text, ok := lesson.Payload.(models.TextPayload); ok {
		fileData = text.FileData
	}

	_, err = ex.ExecContext(ctx, insertLessonSQL,
		lesson.ID, lesson.Title, lesson.Description, lesson.Category, lesson.TutorID,
		string(lesson.Format()), formatTime(lesson.CreatedAt), payloadJSON, fileData,
		lesson.Stats.Views, lesson.Stats.Completions, lesson.Stats.Rating,
		lesson.Stats.Status, lesson.Stats.Duration,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lesson %s", ErrDuplicate, lesson.ID)
		}
		return fmt.Errorf("failed to insert lesson: %w", err)
	}
	return nil
}

// InsertOne stores a lesson and returns its identifier.
func (r *SQLLessonRepository) InsertOne(ctx context.Context, lesson *models.Lesson) (string, error) {
	if err := insertLesson(ctx, r.db, lesson); err != nil {
		return "", err
	}
	return lesson.ID, nil
}

// InsertMany stores all lessons atomically and returns their identifiers in order.
func (r *SQLLessonRepository) InsertMany(ctx context.Context, lessons []models.Lesson) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(lessons))
	for i := range lessons {
		if err := insertLesson(ctx, tx, &lessons[i]); err != nil {
			return nil, err
		}
		ids = append(ids, lessons[i].ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit lessons: %w", err)
	}
	return ids, nil
}

// scanLesson is a helper to scan a lesson from a row or rows object.
func scanLesson(scanner interface{ Scan(...any) error }, withFile bool) (models.Lesson, error) {
	var lesson models.Lesson
	var desc, status, duration sql.NullString
	var views, completions sql.NullInt64
	var rating sql.NullFloat64
	var format, createdAt, payloadJSON string
	var fileData []byte

	dest := []any{
		&lesson.ID, &lesson.Title, &desc, &lesson.Category, &lesson.TutorID, &format,
		&createdAt, &payloadJSON, &views, &completions, &rating, &status, &duration,
	}
	if withFile {
		dest = append(dest, &fileData)
	}
	if err := scanner.Scan(dest...); err != nil {
		return lesson, err
	}

	// Assign values from nullable types
	lesson.Description = desc.String
	if views.Valid {
		v := int(views.Int64)
		lesson.Stats.Views = &v
	}
	if completions.Valid {
		v := int(completions.Int64)
		lesson.Stats.Completions = &v
	}
	if rating.Valid {
		lesson.Stats.Rating = &rating.Float64
	}
	if status.Valid {
		lesson.Stats.Status = &status.String
	}
	if duration.Valid {
		lesson.Stats.Duration = &duration.String
	}

	var err error
	if lesson.CreatedAt, err = parseTime(createdAt); err != nil {
		return lesson, fmt.Errorf("lesson %s has bad created_at: %w", lesson.ID, err)
	}

	payload, err := models.DecodePayload(models.Format(format), payloadJSON)
	if err != nil {
		return lesson, fmt.Errorf("lesson %s: %w", lesson.ID, err)
	}
	if text, ok := payload.(models.TextPayload); ok && withFile {
		text.FileData = fileData
		payload = text
	}
	lesson.Payload = payload
	return lesson, nil
}

const lessonColumns = `id, title, description, category, tutor_id, format, created_at,
	payload_json, views, completions, rating, status, duration`

// Find returns the lessons matching filter in storage order. Raw file bytes
// are projected out.
func (r *SQLLessonRepository) Find(ctx context.Context, filter LessonFilter) ([]models.Lesson, error) {
	var conds []string
	var args []any
	if filter.TutorID != "" {
		conds = append(conds, "tutor_id = ?")
		args = append(args, filter.TutorID)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Format != "" {
		conds = append(conds, "format = ?")
		args = append(args, string(filter.Format))
	}

	query := "SELECT " + lessonColumns + " FROM lessons"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		lesson, err := scanLesson(rows, false)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// FindOne retrieves a single lesson by its ID, including any embedded file bytes.
func (r *SQLLessonRepository) FindOne(ctx context.Context, id string) (*models.Lesson, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+lessonColumns+", file_data FROM lessons WHERE id = ?", id)
	lesson, err := scanLesson(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lesson, nil
}
