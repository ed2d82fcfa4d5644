// Package service contains the business logic: form authoring, public
// submissions, the owner's submission queries and account management.
//
// Services receive the caller's identity as a plain argument. They never
// read HTTP requests and never choose status codes; failures are apperror
// kinds that the handler layer maps.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/generator"
	"github.com/sakif/promptforms/internal/metrics"
	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository"
	"github.com/sakif/promptforms/internal/schema"
)

const (
	MaxTitleLength  = 200
	MaxPromptLength = 4000
)

// FormCache is the optional public-form cache (see package cache).
type FormCache interface {
	Get(ctx context.Context, id string) (*model.Form, bool)
	Set(ctx context.Context, f *model.Form)
	Invalidate(ctx context.Context, id string)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*model.Form, bool) { return nil, false }
func (noCache) Set(context.Context, *model.Form)                {}
func (noCache) Invalidate(context.Context, string)              {}

// FormService manages forms on behalf of their owners and serves the
// published definition to anonymous visitors.
type FormService struct {
	forms       repository.FormRepository
	submissions repository.SubmissionRepository
	gen         generator.Generator
	cache       FormCache
	logger      *slog.Logger
	now         func() time.Time
}

// NewFormService wires a FormService. cache may be nil.
func NewFormService(
	forms repository.FormRepository,
	submissions repository.SubmissionRepository,
	gen generator.Generator,
	cache FormCache,
	logger *slog.Logger,
) *FormService {
	if cache == nil {
		cache = noCache{}
	}
	return &FormService{
		forms:       forms,
		submissions: submissions,
		gen:         gen,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// GenerateSchema asks the generator for a schema matching prompt. Nothing is
// stored; the owner reviews the preview and then calls Create.
func (s *FormService) GenerateSchema(ctx context.Context, prompt string) (schema.FormSchema, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return schema.FormSchema{}, apperror.ValidationFailed("prompt", "Prompt is required")
	}
	if len(prompt) > MaxPromptLength {
		return schema.FormSchema{}, apperror.ValidationFailed("prompt",
			fmt.Sprintf("Prompt must be %d characters or less", MaxPromptLength))
	}

	start := time.Now()
	raw, err := s.gen.Generate(ctx, prompt)
	metrics.SchemaGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return schema.FormSchema{}, s.generationFailed(err)
	}

	fs, err := schema.ParseJSON(raw)
	if err != nil {
		return schema.FormSchema{}, s.generationFailed(err)
	}
	if fs.ID == "" {
		fs.ID = fmt.Sprintf("schema-%d", s.now().UnixMilli())
	}

	metrics.SchemaGenerationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info("schema generated",
		slog.String("schemaID", fs.ID),
		slog.Int("fields", len(fs.Fields)),
	)
	return fs, nil
}

func (s *FormService) generationFailed(cause error) error {
	metrics.SchemaGenerationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	s.logger.Error("schema generation failed", slog.String("error", cause.Error()))
	return apperror.Upstream("Failed to generate form schema", cause)
}

// Create stores a new form for ownerID. The schema is frozen from here on.
func (s *FormService) Create(ctx context.Context, ownerID, title string, fs *schema.FormSchema) (*model.Form, error) {
	title = strings.TrimSpace(title)
	if title == "" || fs == nil {
		return nil, apperror.ValidationFailed("title", "Title and schema are required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less", MaxTitleLength))
	}
	if err := fs.Check(); err != nil {
		return nil, apperror.ValidationFailed("schema", err.Error())
	}

	form := &model.Form{Title: title, Schema: *fs, OwnerID: ownerID}
	if err := s.forms.CreateForm(ctx, form); err != nil {
		s.logger.Error("failed to create form",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating form: %w", err)
	}

	s.logger.Info("form created",
		slog.String("formID", form.ID),
		slog.String("ownerID", ownerID),
	)
	return form, nil
}

// List returns the owner's live forms, newest first, with submission counts.
func (s *FormService) List(ctx context.Context, ownerID string) ([]model.Form, error) {
	forms, err := s.forms.ListFormsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing forms: %w", err)
	}
	return forms, nil
}

// Get returns one of the owner's forms with its submission count. A form
// owned by someone else is reported exactly like a missing one.
func (s *FormService) Get(ctx context.Context, ownerID, id string) (*model.Form, error) {
	form, err := s.forms.GetFormByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	n, err := s.submissions.CountSubmissions(ctx, form.ID)
	if err != nil {
		return nil, fmt.Errorf("counting submissions: %w", err)
	}
	form.SubmissionCount = n
	return form, nil
}

// GetPublic returns a live form regardless of owner. Results are cached.
func (s *FormService) GetPublic(ctx context.Context, id string) (*model.Form, error) {
	if form, ok := s.cache.Get(ctx, id); ok {
		return form, nil
	}

	form, err := s.forms.GetFormByID(ctx, id, "")
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, form)
	return form, nil
}

// Delete soft-deletes one of the owner's forms and evicts it from the cache.
func (s *FormService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.forms.SoftDeleteForm(ctx, id, ownerID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info("form deleted",
		slog.String("formID", id),
		slog.String("ownerID", ownerID),
	)
	return nil
}
