package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. Its lifecycle is tied to the
// parent post: removing the post removes its comments with it.
type Comment struct {
	ID        string    `json:"id"`
	Author    UserRef   `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrNotCommentOwner     = errors.New("not the owner of this comment")
	ErrCommentTextRequired = errors.New("comment text is required")
	ErrCommentTooLong      = errors.New("comment text too long")
)
