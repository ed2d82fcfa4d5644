package model

import (
	"time"

	"github.com/sakif/promptforms/internal/schema"
)

// Form is a titled, owned, stored schema.
//
// The schema is written once at creation and never mutated afterwards, so
// every submission is validated against exactly the definition its form was
// published with. Deleting a form only sets IsDeleted.
type Form struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Schema    schema.FormSchema `json:"schema"`
	OwnerID   string            `json:"userId"`
	IsDeleted bool              `json:"-"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	// SubmissionCount is filled by list queries only.
	SubmissionCount int `json:"submissionCount"`
}

// PublicForm is what an anonymous visitor sees: enough to render and submit
// the form, nothing about its owner.
type PublicForm struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Schema schema.FormSchema `json:"schema"`
}

// Public strips owner data from f.
func (f *Form) Public() PublicForm {
	return PublicForm{ID: f.ID, Title: f.Title, Schema: f.Schema}
}

// Submission is one validated response to a form. Data holds the cleaned
// values keyed by field id.
type Submission struct {
	ID        string         `json:"id"`
	FormID    string         `json:"-"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}
