package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/isdelr/microlearn-be/internal/database"
	"github.com/isdelr/microlearn-be/internal/repository"
	"github.com/isdelr/microlearn-be/internal/storage"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

type lessonFixture struct {
	svc     *LessonService
	events  *EventService
	baseDir string
}

func newLessonFixture(t *testing.T) *lessonFixture {
	t.Helper()
	db := newTestDB(t)
	baseDir := t.TempDir()
	files, err := storage.NewLocal(baseDir)
	require.NoError(t, err)

	events := NewEventService(db)
	svc := NewLessonService(repository.NewLessonRepository(db), files, events)
	svc.now = func() time.Time { return fixedNow }
	return &lessonFixture{svc: svc, events: events, baseDir: baseDir}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}
