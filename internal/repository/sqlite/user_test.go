package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice@example.com")

	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := db.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestCreateUser_DuplicateEmailConflicts(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "alice@example.com"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "alice@example.com")
	ctx := context.Background()

	got, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = db.GetUserByEmail(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetUserByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpsertGitHubUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &model.User{GitHubID: 12345, Login: "octo", AvatarURL: "https://example.com/a.png"}
	require.NoError(t, db.UpsertGitHubUser(ctx, first))
	require.NotEmpty(t, first.ID)

	again := &model.User{GitHubID: 12345, Login: "octocat", Email: "octo@example.com"}
	require.NoError(t, db.UpsertGitHubUser(ctx, again))
	assert.Equal(t, first.ID, again.ID, "same GitHub account keeps its ID")

	got, err := db.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "octocat", got.Login)
	assert.Equal(t, "octo@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)
}

func TestUpsertGitHubUser_SeveralWithoutEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertGitHubUser(ctx, &model.User{GitHubID: 1, Login: "a"}))
	require.NoError(t, db.UpsertGitHubUser(ctx, &model.User{GitHubID: 2, Login: "b"}),
		"empty emails must not collide")
}

func TestUpsertGitHubUser_RequiresGitHubID(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.UpsertGitHubUser(context.Background(), &model.User{Login: "x"}))
}
