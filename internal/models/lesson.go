package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format identifies which payload variant a lesson carries.
type Format string

const (
	FormatVideo Format = "video"
	FormatText  Format = "text"
	FormatQuiz  Format = "quiz"
	// FormatAudio has no ingestion pipeline; it is only recognised when presenting.
	FormatAudio Format = "audio"
)

// VideoType selects where a video lesson's content lives.
type VideoType string

const (
	VideoLocal   VideoType = "local"
	VideoYouTube VideoType = "youtube"
)

// ContentType selects how a text lesson was supplied.
type ContentType string

const (
	ContentPlain ContentType = "plain"
	ContentFile  ContentType = "file"
)

// Payload is the format-specific part of a lesson. Exactly one variant is
// attached to a lesson and its Format must match the lesson's format tag.
type Payload interface {
	Format() Format
	isPayload()
}

// VideoPayload holds a video lesson's content reference.
type VideoPayload struct {
	VideoType  VideoType `json:"video_type"`
	ContentURL string    `json:"content_url"`
}

// TextPayload holds a text lesson's content.
type TextPayload struct {
	ContentType ContentType `json:"content_type"`
	TextContent string      `json:"text_content"`
	ContentURL  string      `json:"content_url"`
	FileName    string      `json:"file_name,omitempty"`
	FileData    []byte      `json:"-"` // Stored in its own column, served separately
}

// QuizPayload holds an ordered list of validated questions.
type QuizPayload struct {
	Questions      []Question `json:"quiz_data"`
	TotalQuestions int        `json:"total_questions"`
}

// UnknownPayload stands in for stored documents whose format has no variant.
type UnknownPayload struct {
	Kind Format `json:"-"`
}

// Question is a single multiple-choice quiz question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

func (VideoPayload) Format() Format     { return FormatVideo }
func (TextPayload) Format() Format      { return FormatText }
func (QuizPayload) Format() Format      { return FormatQuiz }
func (p UnknownPayload) Format() Format { return p.Kind }

func (VideoPayload) isPayload()   {}
func (TextPayload) isPayload()    {}
func (QuizPayload) isPayload()    {}
func (UnknownPayload) isPayload() {}

// LessonStats are optional engagement fields. Nil means the field was never set.
type LessonStats struct {
	Views       *int     `json:"views,omitempty"`
	Completions *int     `json:"completions,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Duration    *string  `json:"duration,omitempty"`
}

// Lesson is a stored unit of learning content.
type Lesson struct {
	ID          string
	Title       string
	Description string
	Category    string
	TutorID     string
	CreatedAt   time.Time
	Payload     Payload
	Stats       LessonStats
}

// Format returns the lesson's format tag, derived from its payload.
func (l Lesson) Format() Format {
	if l.Payload == nil {
		return ""
	}
	return l.Payload.Format()
}

// MarshalJSON flattens the lesson into a single document: the common fields,
// the optional stats and only the fields of the attached payload variant.
func (l Lesson) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"_id":         l.ID,
		"title":       l.Title,
		"description": l.Description,
		"category":    l.Category,
		"tutor_id":    l.TutorID,
		"format":      l.Format(),
		"created_at":  l.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	if err := mergeFields(doc, l.Stats); err != nil {
		return nil, err
	}
	if l.Payload != nil {
		if err := mergeFields(doc, l.Payload); err != nil {
			return nil, err
		}
	}
	return json.Marshal(doc)
}

func mergeFields(doc map[string]any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, f := range fields {
		doc[k] = f
	}
	return nil
}

// EncodePayload marshals a payload into its JSON column form for DB storage.
func EncodePayload(p Payload) (string, error) {
	if p == nil {
		return "", fmt.Errorf("lesson has no payload")
	}
	if _, ok := p.(UnknownPayload); ok {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", p.Format(), err)
	}
	return string(b), nil
}

// DecodePayload turns a stored JSON column back into the variant named by format.
func DecodePayload(format Format, data string) (Payload, error) {
	switch format {
	case FormatVideo:
		var p VideoPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode video payload: %w", err)
		}
		return p, nil
	case FormatText:
		var p TextPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode text payload: %w", err)
		}
		return p, nil
	case FormatQuiz:
		var p QuizPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode quiz payload: %w", err)
		}
		return p, nil
	default:
		return UnknownPayload{Kind: format}, nil
	}
}
