// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a form owner.
//
// An account is created either by email/password signup or by a first GitHub
// login. PasswordHash is empty for GitHub-only accounts and GitHubID is zero
// for password-only accounts; the json tags keep both out of API responses.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	Login        string    `json:"login,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
