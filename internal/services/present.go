package services

import (
	"strings"
	"time"

	"github.com/isdelr/microlearn-be/internal/models"
)

// Placeholder thumbnails, one per format, as inline SVG data URIs.
const (
	thumbnailVideo   = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTUwIiBoZWlnaHQ9IjEwMCIgdmlld0JveD0iMCAwIDE1MCAxMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIxNTAiIGhlaWdodD0iMTAwIiBmaWxsPSIjRTVFN0VCIi8+Cjx0ZXh0IHg9Ijc1IiB5PSI1NSIgdGV4dC1hbmNob3I9Im1pZGRsZSIgZmlsbD0iIzZCNzI4MCIgZm9udC1zaXplPSIxNCIgZm9udC1mYW1pbHk9InNhbnMtc2VyaWYiPuKWtjwvdGV4dD4KPC9zdmc+"
	thumbnailQuiz    = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTUwIiBoZWlnaHQ9IjEwMCIgdmlld0JveD0iMCAwIDE1MCAxMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIxNTAiIGhlaWdodD0iMTAwIiBmaWxsPSIjRkVEN0Q3Ii8+Cjx0ZXh0IHg9Ijc1IiB5PSI1NSIgdGV4dC1hbmNob3I9Im1pZGRsZSIgZmlsbD0iI0M3NEIzQyIgZm9udC1zaXplPSIyNCIgZm9udC1mYW1pbHk9InNhbnMtc2VyaWYiPj88L3RleHQ+Cjwvc3ZnPg=="
	thumbnailText    = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTUwIiBoZWlnaHQ9IjEwMCIgdmlld0JveD0iMCAwIDE1MCAxMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIxNTAiIGhlaWdodD0iMTAwIiBmaWxsPSIjREVGN0ZGIi8+Cjx0ZXh0IHg9Ijc1IiB5PSI1NSIgdGV4dC1hbmNob3I9Im1pZGRsZSIgZmlsbD0iIzMwNjVBQiIgZm9udC1zaXplPSIyMCIgZm9udC1mYW1pbHk9InNhbnMtc2VyaWYiPkE8L3RleHQ+Cjwvc3ZnPg=="
	thumbnailAudio   = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTUwIiBoZWlnaHQ9IjEwMCIgdmlld0JveD0iMCAwIDE1MCAxMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIxNTAiIGhlaWdodD0iMTAwIiBmaWxsPSIjRjNFOEZGIi8+Cjx0ZXh0IHg9Ijc1IiB5PSI1NSIgdGV4dC1hbmNob3I9Im1pZGRsZSIgZmlsbD0iIzc5MzNCNyIgZm9udC1zaXplPSIxOCIgZm9udC1mYW1pbHk9InNhbnMtc2VyaWYiPuKZqzwvdGV4dD4KPC9zdmc+"
	thumbnailUnknown = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTUwIiBoZWlnaHQ9IjEwMCIgdmlld0JveD0iMCAwIDE1MCAxMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIxNTAiIGhlaWdodD0iMTAwIiBmaWxsPSIjRjNGNEY2Ii8+Cjwvc3ZnPg=="
)

// Present maps a stored lesson onto the dashboard view, filling defaults for
// absent fields.
func Present(l models.Lesson) models.LessonView {
	view := models.LessonView{
		MongoID:     l.ID,
		ID:          l.ID,
		Title:       orDefault(l.Title, "Untitled"),
		Description: l.Description,
		Category:    orDefault(l.Category, "Uncategorized"),
		TutorID:     l.TutorID,
		Type:        l.Format(),
		Status:      "published",
		Duration:    "N/A",
		UploadDate:  "Unknown",
		Thumbnail:   Thumbnail(l),
		QuizData:    []models.Question{},
	}
	if view.Type == "" {
		view.Type = models.FormatVideo
	}

	if !l.CreatedAt.IsZero() {
		view.CreatedAt = l.CreatedAt.UTC().Format(time.RFC3339Nano)
		view.UploadDate = view.CreatedAt
	}

	st := l.Stats
	if st.Views != nil {
		view.Views = *st.Views
	}
	if st.Completions != nil {
		view.Completions = *st.Completions
	}
	if st.Rating != nil {
		view.Rating = *st.Rating
	}
	if st.Status != nil {
		view.Status = *st.Status
	}
	if st.Duration != nil {
		view.Duration = *st.Duration
	}

	switch p := l.Payload.(type) {
	case models.VideoPayload:
		view.VideoType = p.VideoType
		view.ContentURL = p.ContentURL
	case models.TextPayload:
		view.ContentType = p.ContentType
		view.TextContent = p.TextContent
		view.ContentURL = p.ContentURL
	case models.QuizPayload:
		if p.Questions != nil {
			view.QuizData = p.Questions
		}
		view.TotalQuestions = p.TotalQuestions
	}
	return view
}

// PresentAll maps every lesson through Present, keeping order.
func PresentAll(lessons []models.Lesson) []models.LessonView {
	views := make([]models.LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, Present(l))
	}
	return views
}

// Thumbnail picks the preview image for a lesson. YouTube videos use the
// video's own still; everything else gets a per-format placeholder.
func Thumbnail(l models.Lesson) string {
	switch l.Format() {
	case models.FormatVideo, "":
		if p, ok := l.Payload.(models.VideoPayload); ok && p.VideoType == models.VideoYouTube {
			if id := youTubeID(p.ContentURL); id != "" {
				return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
			}
		}
		return thumbnailVideo
	case models.FormatQuiz:
		return thumbnailQuiz
	case models.FormatText:
		return thumbnailText
	case models.FormatAudio:
		return thumbnailAudio
	default:
		return thumbnailUnknown
	}
}

// youTubeID extracts the video id from a watch or short-link URL. It returns
// "" when the URL has neither form.
func youTubeID(url string) string {
	if _, rest, ok := strings.Cut(url, "youtube.com/watch?v="); ok {
		id, _, _ := strings.Cut(rest, "&")
		return id
	}
	if _, rest, ok := strings.Cut(url, "youtu.be/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		return id
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
