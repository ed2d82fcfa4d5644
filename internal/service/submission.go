package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/metrics"
	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository"
	"github.com/sakif/promptforms/internal/schema"
	"github.com/sakif/promptforms/internal/validate"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery selects a page of submissions. Zero Page or Limit means the
// default; Search and SearchField pick the search mode.
type ListQuery struct {
	Page        int
	Limit       int
	Search      string
	SearchField string
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SubmissionPage is one page of a form's submissions.
type SubmissionPage struct {
	Submissions []model.Submission `json:"submissions"`
	Pagination  Pagination         `json:"pagination"`
}

// ExportForm is the form header of an export document.
type ExportForm struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Schema schema.FormSchema `json:"schema"`
}

// Export is the downloadable archive of every submission of a form.
type Export struct {
	Form             ExportForm         `json:"form"`
	ExportedAt       time.Time          `json:"exportedAt"`
	TotalSubmissions int                `json:"totalSubmissions"`
	Submissions      []model.Submission `json:"submissions"`
}

// SubmissionService accepts public submissions and answers the owner's
// queries over them.
type SubmissionService struct {
	forms       *FormService
	ownedForms  repository.FormRepository
	submissions repository.SubmissionRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewSubmissionService(
	forms *FormService,
	ownedForms repository.FormRepository,
	submissions repository.SubmissionRepository,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		forms:       forms,
		ownedForms:  ownedForms,
		submissions: submissions,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit validates input against the form's stored schema and, only if every
// field passes, stores the cleaned data. Anyone may submit to a live form.
func (s *SubmissionService) Submit(ctx context.Context, formID string, input map[string]any) (*model.Submission, error) {
	form, err := s.forms.GetPublic(ctx, formID)
	if err != nil {
		return nil, err
	}

	res := validate.Submission(form.Schema, input)
	if !res.OK() {
		metrics.SubmissionsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		s.logger.Info("submission rejected",
			slog.String("formID", formID),
			slog.Int("errors", len(res.Errors)),
		)
		return nil, apperror.InvalidFields("Validation failed", res.Errors)
	}

	sub := &model.Submission{FormID: form.ID, Data: res.Data}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		s.logger.Error("failed to store submission",
			slog.String("formID", formID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing submission: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.ResultAccepted).Inc()
	s.logger.Info("submission stored",
		slog.String("formID", formID),
		slog.String("submissionID", sub.ID),
	)
	return sub, nil
}

// normalize applies the paging defaults and the page-size cap.
func (q ListQuery) normalize() (ListQuery, error) {
	if q.Page < 0 {
		return q, apperror.ValidationFailed("page", "page must be a positive integer")
	}
	if q.Limit < 0 {
		return q, apperror.ValidationFailed("limit", "limit must be a positive integer")
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q, nil
}

// List returns one page of the owner's form submissions, newest first.
//
// With both Search and SearchField set only that field is searched; with
// Search alone the whole submission is. Both are case-insensitive substring
// matches. The form must belong to ownerID and be live.
func (s *SubmissionService) List(ctx context.Context, ownerID, formID string, q ListQuery) (*SubmissionPage, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedForms.GetFormByID(ctx, formID, ownerID); err != nil {
		return nil, err
	}

	window := repository.ListOptions{Limit: q.Limit, Offset: (q.Page - 1) * q.Limit}

	var (
		subs  []model.Submission
		total int
	)
	if q.Search != "" {
		search := repository.SubmissionSearch{Term: q.Search, Field: q.SearchField}
		if subs, err = s.submissions.SearchSubmissions(ctx, formID, search, window); err != nil {
			return nil, fmt.Errorf("searching submissions: %w", err)
		}
		if total, err = s.submissions.CountSearchSubmissions(ctx, formID, search); err != nil {
			return nil, fmt.Errorf("counting submissions: %w", err)
		}
	} else {
		if subs, err = s.submissions.ListSubmissions(ctx, formID, window); err != nil {
			return nil, fmt.Errorf("listing submissions: %w", err)
		}
		if total, err = s.submissions.CountSubmissions(ctx, formID); err != nil {
			return nil, fmt.Errorf("counting submissions: %w", err)
		}
	}

	return &SubmissionPage{
		Submissions: subs,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

// Export collects every submission of the owner's form, newest first.
func (s *SubmissionService) Export(ctx context.Context, ownerID, formID string) (*Export, error) {
	form, err := s.ownedForms.GetFormByID(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}

	subs, err := s.submissions.AllSubmissions(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("exporting submissions: %w", err)
	}

	s.logger.Info("submissions exported",
		slog.String("formID", formID),
		slog.Int("count", len(subs)),
	)
	return &Export{
		Form:             ExportForm{ID: form.ID, Title: form.Title, Schema: form.Schema},
		ExportedAt:       s.now().UTC().Truncate(time.Millisecond),
		TotalSubmissions: len(subs),
		Submissions:      subs,
	}, nil
}

// ExportFilename names the download: every character of the title that is
// not an ASCII letter or digit becomes an underscore.
func ExportFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	b.WriteString("_submissions.json")
	return b.String()
}
