package models

// LessonView is the client-facing shape of a lesson used by dashboards.
type LessonView struct {
	MongoID        string      `json:"_id"`
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	TutorID        string      `json:"tutor_id"`
	Type           Format      `json:"type"`
	Status         string      `json:"status"`
	Duration       string      `json:"duration"`
	UploadDate     string      `json:"uploadDate"`
	Views          int         `json:"views"`
	Completions    int         `json:"completions"`
	Rating         float64     `json:"rating"`
	Thumbnail      string      `json:"thumbnail"`
	ContentURL     string      `json:"content_url"`
	VideoType      VideoType   `json:"video_type"`
	TextContent    string      `json:"text_content"`
	QuizData       []Question  `json:"quiz_data"`
	TotalQuestions int         `json:"total_questions"`
	ContentType    ContentType `json:"content_type"`
	CreatedAt      string      `json:"created_at"`
}
