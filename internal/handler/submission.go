package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/service"
)

// SubmissionHandler accepts public submissions and serves the owner's
// submission queries.
//
//	POST /api/form/{id}/submit       public
//	GET  /api/form/{id}/submissions  owner, paginated and searchable
//	GET  /api/form/{id}/export       owner, download of every submission
type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *slog.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger}
}

// HandleSubmit takes the submission as the whole request body, keyed by
// field id.
func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.submissions.Submit(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: "Form submitted successfully",
		Data: map[string]any{
			"submissionId": sub.ID,
			"createdAt":    sub.CreatedAt,
		},
	})
}

// HandleList reads page, limit, search and searchField from the query
// string.
func (h *SubmissionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	page, err := positiveParam(q.Get("page"), "page")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := positiveParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.submissions.List(r.Context(), userID, chi.URLParam(r, "id"), service.ListQuery{
		Page:        page,
		Limit:       limit,
		Search:      q.Get("search"),
		SearchField: q.Get("searchField"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// HandleExport answers with the bare export document (no envelope) as an
// attachment.
func (h *SubmissionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	exp, err := h.submissions.Export(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, service.ExportFilename(exp.Form.Title)))
	writeJSON(w, http.StatusOK, exportDocument{
		Form:             exp.Form,
		ExportedAt:       exp.ExportedAt.Format(isoMillis),
		TotalSubmissions: exp.TotalSubmissions,
		Submissions:      exp.Submissions,
	})
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// exportDocument fixes exportedAt to millisecond precision.
type exportDocument struct {
	Form             service.ExportForm `json:"form"`
	ExportedAt       string             `json:"exportedAt"`
	TotalSubmissions int                `json:"totalSubmissions"`
	Submissions      any                `json:"submissions"`
}

// positiveParam parses an optional positive integer. Empty means "use the
// default" and comes back as 0.
func positiveParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return n, nil
}
