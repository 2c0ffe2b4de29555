package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/models"
	"github.com/isdelr/microlearn-be/internal/repository"
	"github.com/isdelr/microlearn-be/internal/storage"
)

// AllowedTextExtensions are the document types accepted for file-based text lessons.
var AllowedTextExtensions = []string{".txt", ".md", ".doc", ".docx", ".pdf"}

// LessonInfo holds the fields every lesson upload carries.
type LessonInfo struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Category    string `validate:"required"`
	TutorID     string `validate:"required"`
}

// UploadedFile is a file part received with an upload.
type UploadedFile struct {
	Filename string
	Data     io.Reader
}

// VideoUpload is the input for a video lesson.
type VideoUpload struct {
	LessonInfo
	VideoType  string
	YouTubeURL string
	File       *UploadedFile
}

// TextUpload is the input for a text lesson.
type TextUpload struct {
	LessonInfo
	ContentType string
	TextContent string
	File        *UploadedFile
}

// QuizUpload is the input for a quiz lesson. QuizData is the raw JSON list of questions.
type QuizUpload struct {
	LessonInfo
	QuizData string
}

// LessonFile is the downloadable content attached to a lesson.
type LessonFile struct {
	Name string
	Data []byte
}

// LessonServiceProvider defines the interface for lesson services.
type LessonServiceProvider interface {
	UploadVideo(ctx context.Context, in VideoUpload) (*models.Lesson, error)
	UploadText(ctx context.Context, in TextUpload) (*models.Lesson, error)
	UploadQuiz(ctx context.Context, in QuizUpload) (*models.Lesson, error)
	List(ctx context.Context, filter repository.LessonFilter) ([]models.Lesson, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.Lesson, error)
	Get(ctx context.Context, id string) (*models.Lesson, error)
	GetFile(ctx context.Context, id string) (*LessonFile, error)
	SeedSampleLessons(ctx context.Context) ([]string, error)
}

// LessonService ingests lessons of every format and answers lesson queries.
type LessonService struct {
	lessons repository.LessonRepository
	files   storage.FileStorage
	events  EventServiceProvider
	now     func() time.Time
	newID   func() string
}

// NewLessonService creates a new LessonService.
func NewLessonService(lessons repository.LessonRepository, files storage.FileStorage, events EventServiceProvider) *LessonService {
	return &LessonService{
		lessons: lessons,
		files:   files,
		events:  events,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

func (s *LessonService) newLesson(info LessonInfo, payload models.Payload, id string) *models.Lesson {
	return &models.Lesson{
		ID:          id,
		Title:       info.Title,
		Description: info.Description,
		Category:    info.Category,
		TutorID:     info.TutorID,
		CreatedAt:   s.now().UTC(),
		Payload:     payload,
	}
}

// UploadVideo stores a video lesson. Local videos are written to the video
// bucket; YouTube lessons keep the URL verbatim.
func (s *LessonService) UploadVideo(ctx context.Context, in VideoUpload) (*models.Lesson, error) {
	if err := validateInput(in.LessonInfo); err != nil {
		return nil, err
	}

	id := s.newID()
	var payload models.VideoPayload

	switch models.VideoType(in.VideoType) {
	case models.VideoLocal:
		if !hasFile(in.File) {
			return nil, apperrors.MissingFile("Video file is required.")
		}
		contentURL, err := s.files.Save(ctx, storage.BucketVideos, storedName(id, in.File.Filename), in.File.Data)
		if err != nil {
			return nil, apperrors.Storage(err)
		}
		payload = models.VideoPayload{VideoType: models.VideoLocal, ContentURL: contentURL}
	case models.VideoYouTube:
		if in.YouTubeURL == "" {
			return nil, apperrors.MissingURL("YouTube URL is required.")
		}
		payload = models.VideoPayload{VideoType: models.VideoYouTube, ContentURL: in.YouTubeURL}
	default:
		return nil, apperrors.InvalidVideoType("Invalid video_type (must be 'local' or 'youtube')")
	}

	return s.insert(ctx, s.newLesson(in.LessonInfo, payload, id))
}

// UploadText stores a text lesson from pasted content or an uploaded document.
func (s *LessonService) UploadText(ctx context.Context, in TextUpload) (*models.Lesson, error) {
	if err := validateInput(in.LessonInfo); err != nil {
		return nil, err
	}

	id := s.newID()
	var payload models.TextPayload

	switch models.ContentType(in.ContentType) {
	case models.ContentPlain:
		content := strings.TrimSpace(in.TextContent)
		if content == "" {
			return nil, apperrors.EmptyContent("Text content is required.")
		}
		contentURL, err := s.files.Save(ctx, storage.BucketTexts, id+"_plain.txt", strings.NewReader(content))
		if err != nil {
			return nil, apperrors.Storage(err)
		}
		payload = models.TextPayload{
			ContentType: models.ContentPlain,
			TextContent: content,
			ContentURL:  contentURL,
		}
	case models.ContentFile:
		if !hasFile(in.File) {
			return nil, apperrors.MissingFile("File is required.")
		}
		ext := strings.ToLower(filepath.Ext(in.File.Filename))
		if !isAllowedTextExtension(ext) {
			return nil, apperrors.UnsupportedFileType("Unsupported file type. Allowed: " + strings.Join(AllowedTextExtensions, ", "))
		}

		data, err := io.ReadAll(in.File.Data)
		if err != nil {
			return nil, apperrors.Storage(fmt.Errorf("failed to read uploaded file: %w", err))
		}
		contentURL, err := s.files.Save(ctx, storage.BucketTexts, storedName(id, in.File.Filename), bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.Storage(err)
		}

		var preview string
		if ext == ".txt" || ext == ".md" {
			preview = decodeText(data)
		} else {
			preview = fmt.Sprintf("File uploaded: %s. Content extraction not implemented for this file type.", in.File.Filename)
		}

		payload = models.TextPayload{
			ContentType: models.ContentFile,
			TextContent: preview,
			ContentURL:  contentURL,
			FileName:    in.File.Filename,
			FileData:    data,
		}
	default:
		return nil, apperrors.InvalidContentType("Invalid content_type (must be 'plain' or 'file')")
	}

	return s.insert(ctx, s.newLesson(in.LessonInfo, payload, id))
}

// UploadQuiz validates the question list and stores a quiz lesson.
func (s *LessonService) UploadQuiz(ctx context.Context, in QuizUpload) (*models.Lesson, error) {
	if err := validateInput(in.LessonInfo); err != nil {
		return nil, err
	}

	questions, err := parseQuiz(in.QuizData)
	if err != nil {
		return nil, err
	}

	payload := models.QuizPayload{Questions: questions, TotalQuestions: len(questions)}
	return s.insert(ctx, s.newLesson(in.LessonInfo, payload, s.newID()))
}

// parseQuiz decodes raw quiz JSON and checks each question in order, stopping
// at the first defect.
func parseQuiz(raw string) ([]models.Question, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, apperrors.MalformedJSON("Invalid JSON format for quiz data.")
	}

	items, ok := decoded.([]any)
	if !ok || len(items) == 0 {
		return nil, apperrors.EmptyQuiz("Quiz must contain at least one question.")
	}

	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		n := i + 1
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, apperrors.MissingField(fmt.Sprintf("Question %d is missing required fields (question, options, correct_answer).", n))
		}
		for _, key := range []string{"question", "options", "correct_answer"} {
			if _, present := fields[key]; !present {
				return nil, apperrors.MissingField(fmt.Sprintf("Question %d is missing required fields (question, options, correct_answer).", n))
			}
		}

		rawOptions, ok := fields["options"].([]any)
		if !ok || len(rawOptions) < 2 {
			return nil, apperrors.InsufficientOptions(fmt.Sprintf("Question %d must have at least 2 options.", n))
		}

		text, textOK := fields["question"].(string)
		answer, answerOK := fields["correct_answer"].(string)
		if !textOK || !answerOK {
			return nil, apperrors.MalformedJSON(fmt.Sprintf("Question %d: question and correct_answer must be strings.", n))
		}
		options := make([]string, 0, len(rawOptions))
		for _, o := range rawOptions {
			opt, ok := o.(string)
			if !ok {
				return nil, apperrors.MalformedJSON(fmt.Sprintf("Question %d: options must be strings.", n))
			}
			options = append(options, opt)
		}

		if !slices.Contains(options, answer) {
			return nil, apperrors.AnswerNotInOptions(fmt.Sprintf("Question %d: correct_answer must be one of the provided options.", n))
		}

		questions = append(questions, models.Question{Question: text, Options: options, CorrectAnswer: answer})
	}
	return questions, nil
}

func (s *LessonService) insert(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error) {
	if _, err := s.lessons.InsertOne(ctx, lesson); err != nil {
		log.Error().Err(err).Str("lesson_id", lesson.ID).Str("format", string(lesson.Format())).Msg("Failed to store lesson")
		return nil, apperrors.Storage(err)
	}

	s.record(ctx, EventLessonCreate, fmt.Sprintf("Lesson '%s' (%s) created", lesson.Title, lesson.Format()), lesson.TutorID)
	return lesson, nil
}

// List returns the lessons matching filter in storage order.
func (s *LessonService) List(ctx context.Context, filter repository.LessonFilter) ([]models.Lesson, error) {
	lessons, err := s.lessons.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return lessons, nil
}

// ListByTutor returns every lesson authored by tutorID.
func (s *LessonService) ListByTutor(ctx context.Context, tutorID string) ([]models.Lesson, error) {
	return s.List(ctx, repository.LessonFilter{TutorID: tutorID})
}

// Get returns a single lesson with its stored file bytes.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("lesson", id)
		}
		return nil, apperrors.Storage(err)
	}
	return lesson, nil
}

// GetFile returns the content file attached to a lesson: the embedded bytes of
// an uploaded document, or the stored companion or video file.
func (s *LessonService) GetFile(ctx context.Context, id string) (*LessonFile, error) {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var bucket, contentURL string
	switch p := lesson.Payload.(type) {
	case models.TextPayload:
		if len(p.FileData) > 0 {
			return &LessonFile{Name: p.FileName, Data: p.FileData}, nil
		}
		bucket, contentURL = storage.BucketTexts, p.ContentURL
	case models.VideoPayload:
		if p.VideoType != models.VideoLocal {
			return nil, apperrors.NotFound("lesson file", id)
		}
		bucket, contentURL = storage.BucketVideos, p.ContentURL
	default:
		return nil, apperrors.NotFound("lesson file", id)
	}

	name := path.Base(contentURL)
	data, err := s.files.Read(ctx, bucket, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("lesson file", id)
		}
		return nil, apperrors.Storage(err)
	}
	return &LessonFile{Name: name, Data: data}, nil
}

// SeedSampleLessons inserts a fixed set of demo video lessons and returns their ids.
func (s *LessonService) SeedSampleLessons(ctx context.Context) ([]string, error) {
	samples := sampleLessons(s.now().UTC(), s.newID)
	ids, err := s.lessons.InsertMany(ctx, samples)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	s.record(ctx, EventLessonSeed, fmt.Sprintf("Seeded %d sample lessons", len(ids)), "")
	return ids, nil
}

func sampleLessons(createdAt time.Time, newID func() string) []models.Lesson {
	type sample struct {
		title, description, category, tutorID string
		videoType                             models.VideoType
		url                                   string
		views, completions                    int
		rating                                float64
		duration                              string
	}
	samples := []sample{
		{"Linear Algebra Basics", "Introduction to linear algebra concepts", "Math", "tutor123",
			models.VideoYouTube, "https://youtube.com/watch?v=example1", 150, 120, 4.5, "45 min"},
		{"Advanced Calculus", "Deep dive into calculus", "Math", "tutor123",
			models.VideoLocal, "/uploaded_videos/calculus.mp4", 89, 67, 4.2, "60 min"},
		{"Programming Fundamentals", "Learn programming basics", "Programming", "tutor234",
			models.VideoYouTube, "https://youtube.com/watch?v=example2", 234, 178, 4.7, "30 min"},
	}

	lessons := make([]models.Lesson, 0, len(samples))
	for _, sm := range samples {
		views, completions, rating := sm.views, sm.completions, sm.rating
		status, duration := "published", sm.duration
		lessons = append(lessons, models.Lesson{
			ID:          newID(),
			Title:       sm.title,
			Description: sm.description,
			Category:    sm.category,
			TutorID:     sm.tutorID,
			CreatedAt:   createdAt,
			Payload:     models.VideoPayload{VideoType: sm.videoType, ContentURL: sm.url},
			Stats: models.LessonStats{
				Views:       &views,
				Completions: &completions,
				Rating:      &rating,
				Status:      &status,
				Duration:    &duration,
			},
		})
	}
	return lessons
}

// record writes an activity event. Failures are logged and never fail the caller.
func (s *LessonService) record(ctx context.Context, eventType, message, subject string) {
	if s.events == nil {
		return
	}
	var subj *string
	if subject != "" {
		subj = &subject
	}
	if err := s.events.CreateEvent(ctx, eventType, "info", message, subj); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// storedName is the bucket file name for an upload: the lesson id followed by
// the base name the client sent.
func storedName(id, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "/" || base == "." || base == ".." {
		base = "upload"
	}
	return id + "_" + base
}

func hasFile(f *UploadedFile) bool {
	return f != nil && f.Data != nil && f.Filename != ""
}

func isAllowedTextExtension(ext string) bool {
	return slices.Contains(AllowedTextExtensions, ext)
}
