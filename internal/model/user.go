package model

import (
	"errors"
	"time"
)

// User represents a full user profile as returned by the backend.
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Bio             string    `json:"bio"`
	FollowerCount   int       `json:"followers"`
	FollowingCount  int       `json:"following"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserRef is the denormalized subset of User embedded in posts and
// comments so they can be displayed without an extra fetch.
type UserRef struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Ref returns the embeddable reference for this user.
func (u *User) Ref() UserRef {
	return UserRef{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// UpdateProfileRequest carries a partial profile update. Nil fields are
// left unchanged by the backend.
type UpdateProfileRequest struct {
	Username        *string `json:"username,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to register a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to register a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned by operations that require a session
	ErrNotAuthenticated = errors.New("not authenticated")
)
