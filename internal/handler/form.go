package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/schema"
	"github.com/sakif/promptforms/internal/service"
)

// FormHandler serves form authoring for owners and the public form
// definition for visitors.
//
//	POST   /api/form/generate     generate a schema preview (nothing stored)
//	POST   /api/form/create       store a form
//	GET    /api/form/allforms     list the caller's forms
//	GET    /api/form/{id}         one of the caller's forms
//	DELETE /api/form/{id}         soft-delete one of the caller's forms
//	GET    /api/form/{id}/public  the definition, for anyone
type FormHandler struct {
	forms  *service.FormService
	logger *slog.Logger
}

func NewFormHandler(forms *service.FormService, logger *slog.Logger) *FormHandler {
	return &FormHandler{forms: forms, logger: logger}
}

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// createRequest keeps Schema a pointer so a missing schema is told apart
// from an empty one.
type createRequest struct {
	Title  string             `json:"title" validate:"required"`
	Schema *schema.FormSchema `json:"schema" validate:"required"`
}

var requiredTitleAndSchema = apperror.ValidationFailed("title", "Title and schema are required")

// formView is the owner's view of a form.
type formView struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Schema          *schema.FormSchema `json:"schema,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       *time.Time         `json:"updatedAt,omitempty"`
	SubmissionCount *int               `json:"submissionCount,omitempty"`
}

func (h *FormHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := checkStruct(&req, map[string]string{"prompt": "Prompt is required"}); err != nil {
		writeError(w, err)
		return
	}

	fs, err := h.forms.GenerateSchema(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"schema": fs})
}

func (h *FormHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	// Both rules share one message, so report the first failure only.
	if err := validate.Struct(&req); err != nil {
		writeError(w, requiredTitleAndSchema)
		return
	}

	form, err := h.forms.Create(r.Context(), userID, req.Title, req.Schema)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"form": formView{
		ID:        form.ID,
		Title:     form.Title,
		Schema:    &form.Schema,
		CreatedAt: form.CreatedAt,
	}})
}

func (h *FormHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	forms, err := h.forms.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]formView, len(forms))
	for i := range forms {
		f := &forms[i]
		views[i] = formView{
			ID:              f.ID,
			Title:           f.Title,
			CreatedAt:       f.CreatedAt,
			UpdatedAt:       &f.UpdatedAt,
			SubmissionCount: &f.SubmissionCount,
		}
	}
	writeData(w, http.StatusOK, map[string]any{"forms": views})
}

func (h *FormHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	form, err := h.forms.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"form": formView{
		ID:              form.ID,
		Title:           form.Title,
		Schema:          &form.Schema,
		CreatedAt:       form.CreatedAt,
		UpdatedAt:       &form.UpdatedAt,
		SubmissionCount: &form.SubmissionCount,
	}})
}

func (h *FormHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.forms.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Form deleted successfully"})
}

// HandlePublic needs no authentication: anyone with the link can render
// the form.
func (h *FormHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"form": form.Public()})
}
