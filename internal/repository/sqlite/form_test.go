package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/model"
)

func TestCreateForm(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice@example.com")

	f := createTestForm(t, db, owner.ID, "Contact us")

	assert.NotEmpty(t, f.ID)
	assert.False(t, f.CreatedAt.IsZero())
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)
}

func TestCreateForm_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateForm(context.Background(), &model.Form{
		Title:   "Orphan",
		Schema:  testSchema(),
		OwnerID: "nobody",
	})
	assert.Error(t, err, "foreign key on owner_id should reject unknown users")
}

func TestGetFormByID_RoundTripsSchema(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice@example.com")
	created := createTestForm(t, db, owner.ID, "Contact us")

	got, err := db.GetFormByID(context.Background(), created.ID, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, "Contact us", got.Title)
	assert.Equal(t, owner.ID, got.OwnerID)
	if diff := cmp.Diff(testSchema(), got.Schema); diff != "" {
		t.Errorf("schema changed in storage (-want +got):\n%s", diff)
	}
}

func TestGetFormByID_Ownership(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	f := createTestForm(t, db, alice.ID, "Alice's form")
	ctx := context.Background()

	_, err := db.GetFormByID(ctx, f.ID, bob.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "other owner should see not found, got %v", err)

	_, err = db.GetFormByID(ctx, f.ID, "")
	assert.NoError(t, err, "empty owner matches any owner")

	_, err = db.GetFormByID(ctx, "does-not-exist", "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSoftDeleteForm(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	f := createTestForm(t, db, alice.ID, "Doomed")
	createTestSubmission(t, db, f.ID, map[string]any{"name": "x"})
	ctx := context.Background()

	err := db.SoftDeleteForm(ctx, f.ID, bob.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "non-owner must not delete")

	require.NoError(t, db.SoftDeleteForm(ctx, f.ID, alice.ID))

	_, err = db.GetFormByID(ctx, f.ID, alice.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = db.GetFormByID(ctx, f.ID, "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "deleted forms are hidden from public lookups too")

	err = db.SoftDeleteForm(ctx, f.ID, alice.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete finds nothing")

	n, err := db.CountSubmissions(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "submissions survive a soft delete")
}

func TestListFormsByOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	first := createTestForm(t, db, alice.ID, "first")
	second := createTestForm(t, db, alice.ID, "second")
	deleted := createTestForm(t, db, alice.ID, "deleted")
	createTestForm(t, db, bob.ID, "bob's")

	createTestSubmission(t, db, first.ID, map[string]any{"name": "a"})
	createTestSubmission(t, db, first.ID, map[string]any{"name": "b"})
	require.NoError(t, db.SoftDeleteForm(ctx, deleted.ID, alice.ID))

	forms, err := db.ListFormsByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, forms, 2)

	assert.Equal(t, second.ID, forms[0].ID, "newest first")
	assert.Equal(t, 0, forms[0].SubmissionCount)
	assert.Equal(t, first.ID, forms[1].ID)
	assert.Equal(t, 2, forms[1].SubmissionCount)
}

func TestListFormsByOwner_Empty(t *testing.T) {
	db := newTestDB(t)
	forms, err := db.ListFormsByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, forms)
	assert.Empty(t, forms)
}
