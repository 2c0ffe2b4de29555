package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/auth"
	"github.com/isdelr/microlearn-be/internal/models"
	"github.com/isdelr/microlearn-be/internal/repository"
	"github.com/isdelr/microlearn-be/internal/services"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before file parts spill to temporary files.
const multipartMemory = 32 << 20

// LessonHandler handles HTTP requests for lesson upload and browsing.
type LessonHandler struct {
	service        services.LessonServiceProvider
	maxUploadBytes int64
}

// NewLessonHandler creates a new LessonHandler. Upload bodies larger than
// maxUploadBytes are rejected.
func NewLessonHandler(service services.LessonServiceProvider, maxUploadBytes int64) *LessonHandler {
	return &LessonHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// parseUploadForm reads a multipart or url-encoded upload form within the size limit.
func (h *LessonHandler) parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation(fmt.Sprintf("Upload exceeds the %d MB limit", h.maxUploadBytes>>20))
		}
		return apperrors.Validation("Invalid form data")
	}
	return nil
}

// lessonInfo collects the common upload fields. tutor_id defaults to the caller.
func lessonInfo(r *http.Request) services.LessonInfo {
	info := services.LessonInfo{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		TutorID:     r.FormValue("tutor_id"),
	}
	if info.TutorID == "" {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			info.TutorID = id.Subject
		}
	}
	return info
}

// formFile returns the named file part, or nil when the form has none.
// The caller must close the returned file.
func formFile(r *http.Request, field string) (*services.UploadedFile, multipart.File, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.Validation("Invalid file upload")
	}
	return &services.UploadedFile{Filename: header.Filename, Data: f}, f, nil
}

func closeFile(f multipart.File) {
	if f != nil {
		f.Close()
	}
}

// UploadVideo handles a video lesson upload.
func (h *LessonHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUploadForm(w, r); err != nil {
		WriteError(w, r, err)
		return
	}
	upload, f, err := formFile(r, "video_file")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	defer closeFile(f)

	lesson, err := h.service.UploadVideo(r.Context(), services.VideoUpload{
		LessonInfo: lessonInfo(r),
		VideoType:  r.FormValue("video_type"),
		YouTubeURL: r.FormValue("youtube_url"),
		File:       upload,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	log.Info().Str("lesson_id", lesson.ID).Str("tutor_id", lesson.TutorID).Msg("Video lesson uploaded")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Video uploaded successfully", "lesson": lesson})
}

// UploadText handles a text lesson upload.
func (h *LessonHandler) UploadText(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUploadForm(w, r); err != nil {
		WriteError(w, r, err)
		return
	}
	upload, f, err := formFile(r, "text_file")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	defer closeFile(f)

	lesson, err := h.service.UploadText(r.Context(), services.TextUpload{
		LessonInfo:  lessonInfo(r),
		ContentType: r.FormValue("content_type"),
		TextContent: r.FormValue("text_content"),
		File:        upload,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	log.Info().Str("lesson_id", lesson.ID).Str("tutor_id", lesson.TutorID).Msg("Text lesson uploaded")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Text lesson uploaded successfully", "lesson": lesson})
}

// UploadQuiz handles a quiz lesson upload. quiz_data carries the questions as JSON.
func (h *LessonHandler) UploadQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.parseUploadForm(w, r); err != nil {
		WriteError(w, r, err)
		return
	}

	lesson, err := h.service.UploadQuiz(r.Context(), services.QuizUpload{
		LessonInfo: lessonInfo(r),
		QuizData:   r.FormValue("quiz_data"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	log.Info().Str("lesson_id", lesson.ID).Str("tutor_id", lesson.TutorID).Msg("Quiz lesson uploaded")
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Quiz uploaded successfully", "lesson": lesson})
}

// List returns presented lessons filtered by the tutor_id, category and format query parameters.
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lessons, err := h.service.List(r.Context(), repository.LessonFilter{
		TutorID:  q.Get("tutor_id"),
		Category: q.Get("category"),
		Format:   models.Format(q.Get("format")),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lessons": services.PresentAll(lessons),
		"total":   len(lessons),
	})
}

// ListByTutor returns the presented lessons of one tutor.
func (h *LessonHandler) ListByTutor(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.ListByTutor(r.Context(), chi.URLParam(r, "tutorID"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": services.PresentAll(lessons)})
}

// ListText returns every text lesson as stored.
func (h *LessonHandler) ListText(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.List(r.Context(), repository.LessonFilter{Format: models.FormatText})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": lessons})
}

// Get returns a single lesson as stored.
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lesson": lesson})
}

// GetText returns a single text lesson. Lessons of other formats are not found.
func (h *LessonHandler) GetText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lesson, err := h.service.Get(r.Context(), id)
	if err == nil && lesson.Format() != models.FormatText {
		err = apperrors.NotFound("text lesson", id)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lesson": lesson})
}

// GetFile streams the content file attached to a lesson.
func (h *LessonHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Error().Err(err).Str("file", file.Name).Msg("Failed to write lesson file")
	}
}

// AddTestData seeds the sample lessons.
func (h *LessonHandler) AddTestData(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.SeedSampleLessons(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Test data added successfully",
		"inserted_count": len(ids),
		"inserted_ids":   ids,
	})
}
