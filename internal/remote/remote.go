// Package remote defines the client's view of the backend: a small
// CRUD surface over users, posts and comments. Every operation either
// resolves with the canonical server entity or fails with an error
// carrying a human-readable message; there is no partial success.
package remote

import (
	"context"
	"fmt"

	"xbarclient/internal/model"
)

// Client is the remote store surface consumed by the reconciliation
// layer and the session manager.
type Client interface {
	// Authenticate exchanges credentials for the canonical user and an
	// access token. Fails with *AuthError on bad credentials.
	Authenticate(ctx context.Context, identifier, password string) (*model.AuthResponse, error)

	// Register creates an account and logs it in.
	Register(ctx context.Context, email, username, password string) (*model.AuthResponse, error)

	FetchUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error)

	// FetchFeed returns the full feed, newest first. Called once per
	// session; afterwards the collection is mutated incrementally.
	FetchFeed(ctx context.Context) ([]model.Post, error)

	// FetchUserPosts returns one user's posts for the profile grid.
	FetchUserPosts(ctx context.Context, userID int64) ([]model.Post, error)

	CreatePost(ctx context.Context, authorID int64, imageURL, caption string) (*model.Post, error)
	UpdatePost(ctx context.Context, postID, caption string) (*model.Post, error)
	DeletePost(ctx context.Context, postID string) error

	AddComment(ctx context.Context, postID string, authorID int64, text string) (*model.Comment, error)
	UpdateComment(ctx context.Context, commentID, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error

	// LikePost / UnlikePost return the canonical post so the caller can
	// supersede its optimistic like state.
	LikePost(ctx context.Context, postID string, userID int64) (*model.Post, error)
	UnlikePost(ctx context.Context, postID string, userID int64) (*model.Post, error)
}

// TokenSetter is implemented by clients that attach a bearer token to
// outgoing requests. The session manager sets it on login and restore
// and clears it on logout.
type TokenSetter interface {
	SetToken(token string)
}

// OperationError is a failed remote operation: any non-auth create,
// read, update or delete that the backend rejected or that never
// completed. Surfaced to the user as a transient notification.
type OperationError struct {
	Status  int    // HTTP status, 0 when the request never settled
	Code    string // machine code from the error body, may be empty
	Message string
}

func (e *OperationError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote operation failed: %s", e.Message)
	}
	return fmt.Sprintf("remote operation failed (%d): %s", e.Status, e.Message)
}

// NotFound reports whether the operation failed because the target
// entity does not exist.
func (e *OperationError) NotFound() bool {
	return e.Status == 404
}

// AuthError is a failed authentication. It gates the whole application,
// so it is surfaced as a blocking prompt rather than a transient toast.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}
