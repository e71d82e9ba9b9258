package activity

import (
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-lessons/core"
)

// Type is the activity discriminant; it decides which payload an activity owns.
type Type string

// Types
const (
	TypeReading          Type = "reading"
	TypeReadingAddon     Type = "reading_addon"
	TypeSubReading       Type = "sub_reading"
	TypeSource           Type = "source"
	TypeInTextSource     Type = "in_text_source"
	TypeImage            Type = "image"
	TypeVocabulary       Type = "vocabulary"
	TypeQuestion         Type = "question"
	TypeGraphicOrganizer Type = "graphic_organizer"
)

// Valid reports whether t is a registered activity type.
func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// published flags are stored as "Yes"/"No" strings
const (
	publishedYes = "Yes"
	publishedNo  = "No"
)

func flagValue(b bool) string {
	if b {
		return publishedYes
	}
	return publishedNo
}

func parseFlag(s string) bool {
	return s == publishedYes
}

// Activity is one ordered slot in a lesson's content sequence.
type Activity struct {
	ID        string    `json:"id" yaml:"id"`
	LessonID  string    `json:"lesson_id" yaml:"lesson_id"`
	Order     int       `json:"order" yaml:"order"`
	Name      string    `json:"name" yaml:"name,omitempty"`
	Published null.Bool `json:"published" yaml:"-"`
	Type      Type      `json:"type" yaml:"type"`
	CreatedAt time.Time `json:"created_at" yaml:"-"` // UTC
	UpdatedAt time.Time `json:"updated_at" yaml:"-"` // UTC
}

func (a Activity) record() core.Record {
	rec := core.Record{
		"lesson_id":  a.LessonID,
		"order":      a.Order,
		"name":       a.Name,
		"published":  nil,
		"type":       string(a.Type),
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
	if a.Published.Valid {
		rec["published"] = flagValue(a.Published.Bool)
	}
	if a.ID != "" {
		rec["id"] = a.ID
	}
	return rec
}

func activityFromRecord(rec core.Record) Activity {
	act := Activity{
		ID:       rec.String("id"),
		LessonID: rec.String("lesson_id"),
		Order:    rec.Int("order"),
		Name:     rec.String("name"),
		Type:     Type(rec.String("type")),
	}
	if rec["published"] != nil {
		act.Published = null.BoolFrom(parseFlag(rec.String("published")))
	}
	if t, ok := rec["created_at"].(time.Time); ok {
		act.CreatedAt = t.UTC()
	}
	if t, ok := rec["updated_at"].(time.Time); ok {
		act.UpdatedAt = t.UTC()
	}
	return act
}

// NewActivity contains information needed to append an Activity to a lesson.
type NewActivity struct {
	LessonID string `json:"lesson_id" validate:"notblank"`
	Type     Type   `json:"type" validate:"required,activitytype"`
	Name     string `json:"name"`
}

// UpdateActivity defines what may be changed on an existing Activity outside of ordering.
type UpdateActivity struct {
	Name      *string `json:"name"`
	Published *bool   `json:"published"`
}

// Payload is the type-specific content owned by an Activity.
type Payload interface {
	Type() Type
}

type (
	Reading struct {
		Title     string `json:"title" yaml:"title" validate:"notblank"`
		Content   string `json:"content" yaml:"content"`
		Published bool   `json:"published" yaml:"published"`
	}

	ReadingAddon struct {
		Content   string `json:"content" yaml:"content" validate:"notblank"`
		Published bool   `json:"published" yaml:"published"`
	}

	SubReading struct {
		Content   string `json:"content" yaml:"content" validate:"notblank"`
		Published bool   `json:"published" yaml:"published"`
	}

	Source struct {
		Title     string `json:"title" yaml:"title" validate:"notblank"`
		Author    string `json:"author" yaml:"author,omitempty"`
		Content   string `json:"content" yaml:"content"`
		ImageURL  string `json:"image_url" yaml:"image_url,omitempty" validate:"omitempty,url"`
		Published bool   `json:"published" yaml:"published"`
	}

	// InTextSource is a source quoted inline within a reading.
	InTextSource Source

	Image struct {
		ImageURL         string        `json:"image_url" yaml:"image_url" validate:"required,url"`
		Title            string        `json:"title" yaml:"title,omitempty"`
		DescriptionTitle string        `json:"description_title" yaml:"description_title,omitempty"`
		Description      string        `json:"description" yaml:"description,omitempty"`
		AltText          string        `json:"alt_text" yaml:"alt_text,omitempty"`
		Position         ImagePosition `json:"position" yaml:"position" validate:"omitempty,imageposition"`
		Published        bool          `json:"published" yaml:"published"`
	}

	Vocabulary struct {
		Items []VocabularyItem `json:"items" yaml:"items" validate:"min=1,dive"`
	}

	VocabularyItem struct {
		ID         string `json:"id,omitempty" yaml:"-"`
		Word       string `json:"word" yaml:"word" validate:"notblank"`
		Definition string `json:"definition" yaml:"definition"`
		Order      int    `json:"vocab_order" yaml:"vocab_order"`
	}

	// Quiz is the payload of a question activity.
	Quiz struct {
		Questions []Question `json:"questions" yaml:"questions" validate:"dive"`
	}

	Question struct {
		ID           string   `json:"id,omitempty" yaml:"-"`
		Text         string   `json:"question_text" yaml:"question_text" validate:"notblank"`
		QuestionType string   `json:"question_type" yaml:"question_type"`
		PartB        string   `json:"part_b,omitempty" yaml:"part_b,omitempty"`
		Order        int      `json:"order" yaml:"order"`
		Choices      []Choice `json:"choices" yaml:"choices" validate:"dive"`
	}

	// Choice is a possible answer of a Question. Any number of choices may be correct.
	Choice struct {
		ID        string `json:"id,omitempty" yaml:"-"`
		Text      string `json:"text" yaml:"text" validate:"notblank"`
		IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
		Order     int    `json:"order" yaml:"order"`
	}

	GraphicOrganizer struct {
		TemplateType string          `json:"template_type" yaml:"template_type" validate:"notblank"`
		Content      json.RawMessage `json:"content" yaml:"-"`
		Published    bool            `json:"published" yaml:"published"`
	}
)

func (Reading) Type() Type          { return TypeReading }
func (ReadingAddon) Type() Type     { return TypeReadingAddon }
func (SubReading) Type() Type       { return TypeSubReading }
func (Source) Type() Type           { return TypeSource }
func (InTextSource) Type() Type     { return TypeInTextSource }
func (Image) Type() Type            { return TypeImage }
func (Vocabulary) Type() Type       { return TypeVocabulary }
func (Quiz) Type() Type             { return TypeQuestion }
func (GraphicOrganizer) Type() Type { return TypeGraphicOrganizer }

type ImagePosition string

const (
	PositionLeft   ImagePosition = "left"
	PositionCenter ImagePosition = "center"
	PositionRight  ImagePosition = "right"
)

func (p ImagePosition) Valid() bool {
	switch p {
	case PositionLeft, PositionCenter, PositionRight:
		return true
	}
	return false
}
