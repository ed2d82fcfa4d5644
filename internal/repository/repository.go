// Package repository declares the storage boundary. Services depend on these
// interfaces only; sqlite and postgres provide the implementations.
package repository

import (
	"context"

	"github.com/sakif/promptforms/internal/model"
)

// ListOptions is an already-normalized page window.
type ListOptions struct {
	Limit  int
	Offset int
}

// SubmissionSearch selects which submissions match a search.
//
// With Field set, Term is matched against that one value of the submission
// data. Otherwise Term is matched against the whole serialized document.
// Matching is a case-insensitive substring test in both modes.
type SubmissionSearch struct {
	Term  string
	Field string
}

// FormRepository stores forms. Lookups never return soft-deleted forms.
type FormRepository interface {
	CreateForm(ctx context.Context, form *model.Form) error
	// GetFormByID returns the form when it exists, is not deleted and belongs
	// to ownerID. An empty ownerID matches any owner. Every miss is
	// apperror.ErrNotFound.
	GetFormByID(ctx context.Context, id, ownerID string) (*model.Form, error)
	// ListFormsByOwner returns the owner's live forms newest first with
	// SubmissionCount filled.
	ListFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error)
	SoftDeleteForm(ctx context.Context, id, ownerID string) error
}

// SubmissionRepository stores submissions. Listings are ordered newest first.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	CountSubmissions(ctx context.Context, formID string) (int, error)
	ListSubmissions(ctx context.Context, formID string, opts ListOptions) ([]model.Submission, error)
	SearchSubmissions(ctx context.Context, formID string, search SubmissionSearch, opts ListOptions) ([]model.Submission, error)
	CountSearchSubmissions(ctx context.Context, formID string, search SubmissionSearch) (int, error)
	// AllSubmissions returns every submission of the form, for export.
	AllSubmissions(ctx context.Context, formID string) ([]model.Submission, error)
}

// UserRepository stores user accounts.
type UserRepository interface {
	// CreateUser fails with apperror.ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpsertGitHubUser inserts or refreshes the account linked to
	// user.GitHubID and fills in its ID and timestamps.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// Store bundles every repository; both backends satisfy it.
type Store interface {
	FormRepository
	SubmissionRepository
	UserRepository
	Close() error
}
