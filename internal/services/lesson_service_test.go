package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/models"
	"github.com/isdelr/microlearn-be/internal/repository"
	"github.com/isdelr/microlearn-be/internal/storage"
)

func info() LessonInfo {
	return LessonInfo{
		Title:       "Vectors",
		Description: "Intro to vectors",
		Category:    "Math",
		TutorID:     "ada",
	}
}

func file(name, content string) *UploadedFile {
	return &UploadedFile{Filename: name, Data: strings.NewReader(content)}
}

// --- Video ---

func TestUploadVideo_Local(t *testing.T) {
	f := newLessonFixture(t)
	f.svc.newID = func() string { return "lesson1" }
	ctx := context.Background()

	lesson, err := f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: info(), VideoType: "local", File: file("intro.mp4", "movie")})
	require.NoError(t, err)

	assert.Equal(t, "lesson1", lesson.ID)
	assert.Equal(t, models.FormatVideo, lesson.Format())
	assert.True(t, lesson.CreatedAt.Equal(fixedNow))
	payload, ok := lesson.Payload.(models.VideoPayload)
	require.True(t, ok)
	assert.Equal(t, models.VideoLocal, payload.VideoType)
	assert.Equal(t, "/uploaded_videos/lesson1_intro.mp4", payload.ContentURL)

	data, err := os.ReadFile(filepath.Join(f.baseDir, storage.BucketVideos, "lesson1_intro.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "movie", string(data))

	stored, err := f.svc.Get(ctx, "lesson1")
	require.NoError(t, err)
	assert.Equal(t, payload, stored.Payload)

	recent, err := f.events.GetRecentEvents(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, EventLessonCreate, recent[0].Type)
}

func TestUpload_FilenameWithDirectoriesKeepsLessonPrefix(t *testing.T) {
	f := newLessonFixture(t)
	f.svc.newID = sequentialIDs("lesson")
	ctx := context.Background()

	first, err := f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: info(), VideoType: "local", File: file("dir/intro.mp4", "one")})
	require.NoError(t, err)
	second, err := f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: info(), VideoType: "local", File: file(`other\intro.mp4`, "two")})
	require.NoError(t, err)

	assert.Equal(t, "/uploaded_videos/lesson1_intro.mp4", first.Payload.(models.VideoPayload).ContentURL)
	assert.Equal(t, "/uploaded_videos/lesson2_intro.mp4", second.Payload.(models.VideoPayload).ContentURL)

	text, err := f.svc.UploadText(ctx, TextUpload{LessonInfo: info(), ContentType: "file", File: file("../notes.txt", "hi")})
	require.NoError(t, err)
	assert.Equal(t, "/uploaded_texts/lesson3_notes.txt", text.Payload.(models.TextPayload).ContentURL)

	data, err := os.ReadFile(filepath.Join(f.baseDir, storage.BucketVideos, "lesson2_intro.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestUploadVideo_YouTube(t *testing.T) {
	f := newLessonFixture(t)
	url := "https://www.youtube.com/watch?v=abc123&t=42"

	lesson, err := f.svc.UploadVideo(context.Background(), VideoUpload{LessonInfo: info(), VideoType: "youtube", YouTubeURL: url})
	require.NoError(t, err)

	payload := lesson.Payload.(models.VideoPayload)
	assert.Equal(t, models.VideoYouTube, payload.VideoType)
	assert.Equal(t, url, payload.ContentURL)
}

func TestUploadVideo_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      VideoUpload
		wantErr error
	}{
		{"local without file", VideoUpload{LessonInfo: info(), VideoType: "local"}, apperrors.ErrMissingFile},
		{"local with unnamed file", VideoUpload{LessonInfo: info(), VideoType: "local", File: file("", "x")}, apperrors.ErrMissingFile},
		{"youtube without url", VideoUpload{LessonInfo: info(), VideoType: "youtube"}, apperrors.ErrMissingURL},
		{"unknown type", VideoUpload{LessonInfo: info(), VideoType: "vimeo"}, apperrors.ErrInvalidVideoType},
		{"empty type", VideoUpload{LessonInfo: info()}, apperrors.ErrInvalidVideoType},
		{"missing title", VideoUpload{LessonInfo: LessonInfo{Description: "d", Category: "c", TutorID: "t"}, VideoType: "youtube", YouTubeURL: "u"}, apperrors.ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newLessonFixture(t)
			ctx := context.Background()

			_, err := f.svc.UploadVideo(ctx, tc.in)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))

			lessons, err := f.svc.List(ctx, repository.LessonFilter{})
			require.NoError(t, err)
			assert.Empty(t, lessons)
		})
	}
}

// --- Text ---

func TestUploadText_Plain(t *testing.T) {
	f := newLessonFixture(t)
	f.svc.newID = func() string { return "t1" }

	lesson, err := f.svc.UploadText(context.Background(), TextUpload{LessonInfo: info(), ContentType: "plain", TextContent: "  Hello world \n"})
	require.NoError(t, err)

	payload := lesson.Payload.(models.TextPayload)
	assert.Equal(t, models.ContentPlain, payload.ContentType)
	assert.Equal(t, "Hello world", payload.TextContent)
	assert.Equal(t, "/uploaded_texts/t1_plain.txt", payload.ContentURL)
	assert.Empty(t, payload.FileData)

	data, err := os.ReadFile(filepath.Join(f.baseDir, storage.BucketTexts, "t1_plain.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(data))
}

func TestUploadText_File(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		wantPreview string
	}{
		{"utf8 txt", "notes.txt", "héllo", "héllo"},
		{"uppercase md extension", "README.MD", "# Title", "# Title"},
		{"latin1 txt", "legacy.txt", "caf\xe9", "café"},
		{"pdf", "slides.pdf", "%PDF-1.4", "File uploaded: slides.pdf. Content extraction not implemented for this file type."},
		{"docx", "essay.docx", "PK\x03\x04", "File uploaded: essay.docx. Content extraction not implemented for this file type."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newLessonFixture(t)
			f.svc.newID = func() string { return "t1" }
			ctx := context.Background()

			lesson, err := f.svc.UploadText(ctx, TextUpload{LessonInfo: info(), ContentType: "file", File: file(tc.filename, tc.content)})
			require.NoError(t, err)

			payload := lesson.Payload.(models.TextPayload)
			assert.Equal(t, models.ContentFile, payload.ContentType)
			assert.Equal(t, tc.wantPreview, payload.TextContent)
			assert.Equal(t, "/uploaded_texts/t1_"+tc.filename, payload.ContentURL)
			assert.Equal(t, []byte(tc.content), payload.FileData)

			stored, err := f.svc.Get(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, []byte(tc.content), stored.Payload.(models.TextPayload).FileData)
		})
	}
}

func TestUploadText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      TextUpload
		wantErr error
	}{
		{"blank plain content", TextUpload{LessonInfo: info(), ContentType: "plain", TextContent: " \n\t "}, apperrors.ErrEmptyContent},
		{"file missing", TextUpload{LessonInfo: info(), ContentType: "file"}, apperrors.ErrMissingFile},
		{"unsupported extension", TextUpload{LessonInfo: info(), ContentType: "file", File: file("run.exe", "MZ")}, apperrors.ErrUnsupportedFileType},
		{"no extension", TextUpload{LessonInfo: info(), ContentType: "file", File: file("README", "x")}, apperrors.ErrUnsupportedFileType},
		{"unknown content type", TextUpload{LessonInfo: info(), ContentType: "html", TextContent: "x"}, apperrors.ErrInvalidContentType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newLessonFixture(t)

			_, err := f.svc.UploadText(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUploadText_UnsupportedMessageListsExtensions(t *testing.T) {
	f := newLessonFixture(t)

	_, err := f.svc.UploadText(context.Background(), TextUpload{LessonInfo: info(), ContentType: "file", File: file("a.rtf", "x")})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Unsupported file type. Allowed: .txt, .md, .doc, .docx, .pdf", appErr.Message)
}

// --- Quiz ---

func TestUploadQuiz(t *testing.T) {
	f := newLessonFixture(t)
	quiz := `[
		{"question": "2+2?", "options": ["3", "4"], "correct_answer": "4"},
		{"question": "Capital of France?", "options": ["Paris", "Rome", "Oslo"], "correct_answer": "Paris"}
	]`

	lesson, err := f.svc.UploadQuiz(context.Background(), QuizUpload{LessonInfo: info(), QuizData: quiz})
	require.NoError(t, err)

	payload := lesson.Payload.(models.QuizPayload)
	assert.Equal(t, 2, payload.TotalQuestions)
	require.Len(t, payload.Questions, 2)
	assert.Equal(t, models.Question{Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"}, payload.Questions[0])
}

func TestUploadQuiz_Errors(t *testing.T) {
	tests := []struct {
		name        string
		quiz        string
		wantErr     error
		wantMessage string
	}{
		{"not json", `[{"question":`, apperrors.ErrMalformedJSON, "Invalid JSON format for quiz data."},
		{"empty list", `[]`, apperrors.ErrEmptyQuiz, "Quiz must contain at least one question."},
		{"object instead of list", `{"question": "q"}`, apperrors.ErrEmptyQuiz, "Quiz must contain at least one question."},
		{"missing field", `[{"question": "q", "options": ["a", "b"]}]`, apperrors.ErrMissingField,
			"Question 1 is missing required fields (question, options, correct_answer)."},
		{"one option", `[{"question": "q", "options": ["a", "b"], "correct_answer": "a"}, {"question": "q2", "options": ["a"], "correct_answer": "a"}]`,
			apperrors.ErrInsufficientOptions, "Question 2 must have at least 2 options."},
		{"options not a list", `[{"question": "q", "options": "ab", "correct_answer": "a"}]`, apperrors.ErrInsufficientOptions,
			"Question 1 must have at least 2 options."},
		{"answer not in options", `[{"question": "q", "options": ["a", "b"], "correct_answer": "c"}]`, apperrors.ErrAnswerNotInOptions,
			"Question 1: correct_answer must be one of the provided options."},
		{"non-string option", `[{"question": "q", "options": [1, 2], "correct_answer": "1"}]`, apperrors.ErrMalformedJSON,
			"Question 1: options must be strings."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newLessonFixture(t)
			ctx := context.Background()

			_, err := f.svc.UploadQuiz(ctx, QuizUpload{LessonInfo: info(), QuizData: tc.quiz})
			require.ErrorIs(t, err, tc.wantErr)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.wantMessage, appErr.Message)

			lessons, err := f.svc.List(ctx, repository.LessonFilter{})
			require.NoError(t, err)
			assert.Empty(t, lessons)
		})
	}
}

// --- Queries ---

func TestLessonService_ListAndFilters(t *testing.T) {
	f := newLessonFixture(t)
	ctx := context.Background()

	math := info()
	_, err := f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: math, VideoType: "youtube", YouTubeURL: "https://youtu.be/x"})
	require.NoError(t, err)

	science := info()
	science.Category = "Science"
	science.TutorID = "grace"
	_, err = f.svc.UploadText(ctx, TextUpload{LessonInfo: science, ContentType: "plain", TextContent: "atoms"})
	require.NoError(t, err)

	_, err = f.svc.UploadQuiz(ctx, QuizUpload{LessonInfo: math, QuizData: `[{"question": "q", "options": ["a", "b"], "correct_answer": "a"}]`})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, repository.LessonFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.FormatVideo, all[0].Format())
	assert.Equal(t, models.FormatText, all[1].Format())
	assert.Equal(t, models.FormatQuiz, all[2].Format())

	byCategory, err := f.svc.List(ctx, repository.LessonFilter{Category: "Math"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	caseMismatch, err := f.svc.List(ctx, repository.LessonFilter{Category: "math"})
	require.NoError(t, err)
	assert.Empty(t, caseMismatch)

	quizzes, err := f.svc.List(ctx, repository.LessonFilter{Category: "Math", Format: models.FormatQuiz})
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)

	byTutor, err := f.svc.ListByTutor(ctx, "grace")
	require.NoError(t, err)
	require.Len(t, byTutor, 1)
	assert.Equal(t, "Science", byTutor[0].Category)
}

func TestLessonService_Get_NotFound(t *testing.T) {
	f := newLessonFixture(t)

	_, err := f.svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestLessonService_GetFile(t *testing.T) {
	f := newLessonFixture(t)
	f.svc.newID = sequentialIDs("l")
	ctx := context.Background()

	_, err := f.svc.UploadText(ctx, TextUpload{LessonInfo: info(), ContentType: "file", File: file("notes.md", "# Notes")})
	require.NoError(t, err)
	_, err = f.svc.UploadText(ctx, TextUpload{LessonInfo: info(), ContentType: "plain", TextContent: "plain body"})
	require.NoError(t, err)
	_, err = f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: info(), VideoType: "local", File: file("clip.mp4", "frames")})
	require.NoError(t, err)
	_, err = f.svc.UploadVideo(ctx, VideoUpload{LessonInfo: info(), VideoType: "youtube", YouTubeURL: "https://youtu.be/x"})
	require.NoError(t, err)

	embedded, err := f.svc.GetFile(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "notes.md", embedded.Name)
	assert.Equal(t, "# Notes", string(embedded.Data))

	plain, err := f.svc.GetFile(ctx, "l2")
	require.NoError(t, err)
	assert.Equal(t, "l2_plain.txt", plain.Name)
	assert.Equal(t, "plain body", string(plain.Data))

	video, err := f.svc.GetFile(ctx, "l3")
	require.NoError(t, err)
	assert.Equal(t, "frames", string(video.Data))

	_, err = f.svc.GetFile(ctx, "l4")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLessonService_SeedSampleLessons(t *testing.T) {
	f := newLessonFixture(t)
	ctx := context.Background()

	ids, err := f.svc.SeedSampleLessons(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	lessons, err := f.svc.List(ctx, repository.LessonFilter{})
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, "Linear Algebra Basics", lessons[0].Title)
	assert.Equal(t, ids[0], lessons[0].ID)
	require.NotNil(t, lessons[0].Stats.Views)
	assert.Equal(t, 150, *lessons[0].Stats.Views)
	assert.Equal(t, "45 min", *lessons[0].Stats.Duration)

	programming, err := f.svc.ListByTutor(ctx, "tutor234")
	require.NoError(t, err)
	require.Len(t, programming, 1)
	assert.Equal(t, "Programming Fundamentals", programming[0].Title)
	assert.InDelta(t, 4.7, *programming[0].Stats.Rating, 0.0001)

	local := lessons[1].Payload.(models.VideoPayload)
	assert.Equal(t, models.VideoLocal, local.VideoType)
	assert.Equal(t, "/uploaded_videos/calculus.mp4", local.ContentURL)
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "plain ascii", decodeText([]byte("plain ascii")))
	assert.Equal(t, "naïve", decodeText([]byte("naïve")))
	assert.Equal(t, "Ü", decodeText([]byte{0xdc}))
}
