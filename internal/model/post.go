package model

import (
	"errors"
	"time"
)

// Post represents a post as displayed in the feed, with its likes and
// comments embedded. The ID is assigned by the backend on creation; the
// client never allocates placeholder ids.
type Post struct {
	ID        string    `json:"id"`
	Author    UserRef   `json:"user"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	Hashtags  []string  `json:"hashtags"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like records that a user liked a post. At most one like per
// (post, user) pair. A like added optimistically carries an empty ID
// until the confirmed post replaces it.
type Like struct {
	ID     string `json:"id"`
	UserID int64  `json:"userId"`
}

// LikeCount returns the number of likes on the post.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// IsLikedBy reports whether the given user has liked the post.
func (p *Post) IsLikedBy(userID int64) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// FindComment returns the comment with the given id, or nil.
func (p *Post) FindComment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the post. Store reads hand out clones so
// callers can never mutate shared state in place.
func (p *Post) Clone() Post {
	c := *p
	c.Hashtags = append([]string(nil), p.Hashtags...)
	c.Likes = append([]Like(nil), p.Likes...)
	c.Comments = append([]Comment(nil), p.Comments...)
	return c
}

// Post constraints
const (
	MaxCaptionLength = 2200
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrImageRequired   = errors.New("an image is required")
	ErrCaptionRequired = errors.New("a caption is required")
	ErrCaptionTooLong  = errors.New("caption too long")
)
