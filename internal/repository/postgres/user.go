package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/model"
)

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	row := userRow{
		ID:           xid.New().String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		GitHubID:     user.GitHubID,
		Login:        user.Login,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	user.UpdatedAt = row.UpdatedAt
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.NotFound("user", email)
	}
	return db.takeUser(ctx, email, "email = ?", email)
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.takeUser(ctx, id, "id = ?", id)
}

// UpsertGitHubUser keeps the internal ID of an existing GitHub account and
// refreshes its profile fields.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("postgres: upserting user: github id must be set")
	}

	var existing userRow
	err := db.gdb.WithContext(ctx).Where("github_id = ?", user.GitHubID).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.CreateUser(ctx, user)
	}
	if err != nil {
		return fmt.Errorf("postgres: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now().UTC()
	err = db.gdb.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"login":      user.Login,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
		"updated_at": now,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: updating user %s: %w", existing.ID, err)
	}

	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now
	return nil
}

func (db *DB) takeUser(ctx context.Context, key string, query string, args ...any) (*model.User, error) {
	var row userRow
	if err := db.gdb.WithContext(ctx).Where(query, args...).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", key, err)
	}
	return &model.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		GitHubID:     row.GitHubID,
		Login:        row.Login,
		AvatarURL:    row.AvatarURL,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
