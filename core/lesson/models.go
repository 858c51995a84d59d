package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/somo/core"
)

type LessonPlan struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
	Content string `json:"content"`

	// UseForTraining opts the plan into the fine-tuning export. Admin-only.
	UseForTraining bool `json:"use_for_training"`
	// DriveFileID is set once the plan's PDF has been archived to Drive.
	DriveFileID string `json:"drive_file_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PracticeNote is a teacher's post-lesson reflection, optionally tied to the
// plan it came out of.
type PracticeNote struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	LessonID   string    `json:"lesson_id,omitempty"`
	Title      string    `json:"title"`
	Reflection string    `json:"reflection"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NewLessonPlan struct {
	Title   string `json:"title" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Grade   string `json:"grade"`
	Content string `json:"content" validate:"required"`
}

func (nl *NewLessonPlan) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Subject = core.CleanString(nl.Subject)
	nl.Grade = core.CleanString(nl.Grade)
	return validate.Struct(nl)
}

// UpdateLessonPlan modifies an existing plan. Empty fields keep their current
// values.
type UpdateLessonPlan struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
	Content string `json:"content"`
}

func (ul *UpdateLessonPlan) Validate(orig LessonPlan, validate *validator.Validate) error {
	if title := core.CleanString(ul.Title); title != "" {
		ul.Title = title
	} else {
		ul.Title = orig.Title
	}
	if subject := core.CleanString(ul.Subject); subject != "" {
		ul.Subject = subject
	} else {
		ul.Subject = orig.Subject
	}
	if grade := core.CleanString(ul.Grade); grade != "" {
		ul.Grade = grade
	} else {
		ul.Grade = orig.Grade
	}
	if ul.Content == "" {
		ul.Content = orig.Content
	}
	return validate.Struct(ul)
}

type NewPracticeNote struct {
	LessonID   string `json:"lesson_id"`
	Title      string `json:"title" validate:"required"`
	Reflection string `json:"reflection" validate:"required"`
}

func (np *NewPracticeNote) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	return validate.Struct(np)
}
