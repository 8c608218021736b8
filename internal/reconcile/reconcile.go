// Package reconcile translates user intents into a two-phase
// optimistic-then-confirm (or rollback) protocol against the post
// collection store and the remote store.
//
// Two deliberately distinct strategies are in play and must stay
// distinct; unifying them would silently change observable latency:
//
//   - OptimisticToggle (likes): the local flag and counter flip before
//     the server answers, and are rolled back to their exact pre-intent
//     values on failure.
//   - ConfirmThenApply (posts and comments): nothing is shown until the
//     server confirms, so a failure needs no store rollback, only the
//     discarding of transient editing state.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"strings"

	"xbarclient/internal/model"
	"xbarclient/internal/notify"
	"xbarclient/internal/remote"
	"xbarclient/internal/store"
)

// Strategy names a reconciliation discipline.
type Strategy string

const (
	// OptimisticToggle applies locally first and rolls back on failure.
	OptimisticToggle Strategy = "optimistic-toggle"

	// ConfirmThenApply mutates the store only after server confirmation.
	ConfirmThenApply Strategy = "confirm-then-apply"
)

// Reconciler mediates between view intents and the backend. All methods
// validate locally first: an invalid intent fails immediately with a
// model sentinel error and performs no store mutation and no remote
// call. Remote failures are surfaced through the notifier; validation
// errors are not, since the view shows them inline.
//
// Methods block until the remote operation settles. Callers that want
// a non-blocking intent run them in a goroutine; completions always
// execute and no-op safely when their target has since disappeared.
type Reconciler struct {
	store    *store.PostStore
	remote   remote.Client
	notifier notify.Notifier
	inflight *guard

	// Edits holds in-progress caption and comment drafts. A background
	// Replace of a post never touches it.
	Edits *EditBuffer
}

// New wires a reconciler. notifier may be nil.
func New(postStore *store.PostStore, remoteClient remote.Client, notifier notify.Notifier) *Reconciler {
	return &Reconciler{
		store:    postStore,
		remote:   remoteClient,
		notifier: notifier,
		inflight: newGuard(),
		Edits:    NewEditBuffer(),
	}
}

// LoadFeed populates the collection from the backend. Called once per
// session; everything after is incremental.
func (r *Reconciler) LoadFeed(ctx context.Context) error {
	posts, err := r.remote.FetchFeed(ctx)
	if err != nil {
		r.notifyError("Failed to load posts.")
		return fmt.Errorf("load feed: %w", err)
	}
	r.store.SetAll(posts)
	log.Printf("[Reconcile] Feed loaded: %d posts", len(posts))
	return nil
}

// PreviewCaption returns the client-side caption/hashtag split for
// display while composing. The server's extraction is authoritative
// and supersedes this after the round trip.
func PreviewCaption(raw string) (caption string, hashtags []string) {
	return model.NormalizeCaption(raw)
}

// CreatePost publishes a new post. ConfirmThenApply: the post enters
// the collection only as the server-confirmed entity, carrying the
// canonical id, timestamp and normalized caption.
func (r *Reconciler) CreatePost(ctx context.Context, author model.UserRef, imageURL, rawCaption string) (*model.Post, error) {
	if imageURL == "" {
		return nil, model.ErrImageRequired
	}
	if strings.TrimSpace(rawCaption) == "" {
		return nil, model.ErrCaptionRequired
	}
	if len(rawCaption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	key := fmt.Sprintf("user:%d:create-post", author.ID)
	if !r.inflight.acquire(key) {
		return nil, ErrOperationInFlight
	}
	defer r.inflight.release(key)

	post, err := r.remote.CreatePost(ctx, author.ID, imageURL, rawCaption)
	if err != nil {
		r.notifyError("Failed to create post.")
		return nil, fmt.Errorf("create post: %w", err)
	}

	r.store.Insert(*post)
	log.Printf("[Reconcile] Post created: post=%s author=%d", post.ID, author.ID)
	return post, nil
}

// UpdatePostCaption edits a post's caption. ConfirmThenApply: the store
// keeps the previous post until the server confirms; on failure the
// caller returns to edit mode with the draft intact.
func (r *Reconciler) UpdatePostCaption(ctx context.Context, postID, rawCaption string) (*model.Post, error) {
	if strings.TrimSpace(rawCaption) == "" {
		return nil, model.ErrCaptionRequired
	}
	if len(rawCaption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	key := "post:" + postID
	if !r.inflight.acquire(key) {
		return nil, ErrOperationInFlight
	}
	defer r.inflight.release(key)

	post, err := r.remote.UpdatePost(ctx, postID, rawCaption)
	if err != nil {
		r.notifyError("Failed to update post.")
		return nil, fmt.Errorf("update post: %w", err)
	}

	r.store.Replace(postID, *post)
	r.Edits.End(postDraftKey(postID))
	log.Printf("[Reconcile] Post updated: post=%s", postID)
	return post, nil
}

// DeletePost removes a post. Its comments disappear with it; no
// separate cleanup call is needed. ConfirmThenApply.
func (r *Reconciler) DeletePost(ctx context.Context, postID string) error {
	key := "post:" + postID
	if !r.inflight.acquire(key) {
		return ErrOperationInFlight
	}
	defer r.inflight.release(key)

	if err := r.remote.DeletePost(ctx, postID); err != nil {
		r.notifyError("Failed to delete post.")
		return fmt.Errorf("delete post: %w", err)
	}

	r.store.Remove(postID)
	r.Edits.End(postDraftKey(postID))
	log.Printf("[Reconcile] Post deleted: post=%s", postID)
	return nil
}

// AddComment posts a comment. ConfirmThenApply: the comment appears
// only once the server has confirmed it, appended in confirmation
// order; there is no client-side re-sort.
func (r *Reconciler) AddComment(ctx context.Context, postID string, author model.UserRef, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrCommentTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	key := "post:" + postID + ":add-comment"
	if !r.inflight.acquire(key) {
		return nil, ErrOperationInFlight
	}
	defer r.inflight.release(key)

	comment, err := r.remote.AddComment(ctx, postID, author.ID, text)
	if err != nil {
		r.notifyError("Failed to add comment.")
		return nil, fmt.Errorf("add comment: %w", err)
	}

	post, ok := r.store.Get(postID)
	if !ok {
		// The post left the collection while the call was in flight.
		// The confirmation still ran; there is just nothing to show.
		log.Printf("[Reconcile] Comment confirmed for absent post=%s, dropping", postID)
		return comment, nil
	}
	post.Comments = append(post.Comments, *comment)
	r.store.Replace(postID, post)

	log.Printf("[Reconcile] Comment added: post=%s comment=%s", postID, comment.ID)
	return comment, nil
}

// UpdateComment edits a comment's text. ConfirmThenApply.
func (r *Reconciler) UpdateComment(ctx context.Context, postID, commentID, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrCommentTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}

	key := "comment:" + commentID
	if !r.inflight.acquire(key) {
		return nil, ErrOperationInFlight
	}
	defer r.inflight.release(key)

	comment, err := r.remote.UpdateComment(ctx, commentID, text)
	if err != nil {
		r.notifyError("Failed to update comment.")
		return nil, fmt.Errorf("update comment: %w", err)
	}

	if post, ok := r.store.Get(postID); ok {
		for i := range post.Comments {
			if post.Comments[i].ID == commentID {
				post.Comments[i] = *comment
				break
			}
		}
		r.store.Replace(postID, post)
	}
	r.Edits.End(commentDraftKey(commentID))

	log.Printf("[Reconcile] Comment updated: post=%s comment=%s", postID, commentID)
	return comment, nil
}

// DeleteComment removes a comment. ConfirmThenApply.
func (r *Reconciler) DeleteComment(ctx context.Context, postID, commentID string) error {
	key := "comment:" + commentID
	if !r.inflight.acquire(key) {
		return ErrOperationInFlight
	}
	defer r.inflight.release(key)

	if err := r.remote.DeleteComment(ctx, commentID); err != nil {
		r.notifyError("Failed to delete comment.")
		return fmt.Errorf("delete comment: %w", err)
	}

	if post, ok := r.store.Get(postID); ok {
		kept := post.Comments[:0:0]
		for _, c := range post.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		post.Comments = kept
		r.store.Replace(postID, post)
	}
	r.Edits.End(commentDraftKey(commentID))

	log.Printf("[Reconcile] Comment deleted: post=%s comment=%s", postID, commentID)
	return nil
}

// ToggleLike flips the user's like on a post. OptimisticToggle: the
// local like set changes before the server answers. On success the
// canonical post supersedes the optimistic state (the optimistic like
// never had an id); on failure the like set reverts to its exact
// pre-intent value and a notification is issued. Only the like state
// is rolled back, so an edit confirmed concurrently on the same post
// survives the rollback.
func (r *Reconciler) ToggleLike(ctx context.Context, postID string, userID int64) error {
	key := "post:" + postID + ":like"
	if !r.inflight.acquire(key) {
		return ErrOperationInFlight
	}
	defer r.inflight.release(key)

	post, ok := r.store.Get(postID)
	if !ok {
		return model.ErrPostNotFound
	}

	priorLikes := append([]model.Like(nil), post.Likes...)
	wasLiked := post.IsLikedBy(userID)

	// Applied-optimistic: flip locally, no waiting.
	if wasLiked {
		kept := post.Likes[:0:0]
		for _, l := range post.Likes {
			if l.UserID != userID {
				kept = append(kept, l)
			}
		}
		post.Likes = kept
	} else {
		post.Likes = append(post.Likes, model.Like{UserID: userID})
	}
	r.store.Replace(postID, post)

	var (
		canonical *model.Post
		err       error
	)
	if wasLiked {
		canonical, err = r.remote.UnlikePost(ctx, postID, userID)
	} else {
		canonical, err = r.remote.LikePost(ctx, postID, userID)
	}

	if err != nil {
		// Rolled-back: restore the pre-intent like state exactly.
		if current, ok := r.store.Get(postID); ok {
			current.Likes = priorLikes
			r.store.Replace(postID, current)
		}
		r.notifyError("Failed to update like.")
		log.Printf("[Reconcile] Like toggle rolled back: post=%s user=%d", postID, userID)
		return fmt.Errorf("toggle like: %w", err)
	}

	r.store.Replace(postID, *canonical)
	log.Printf("[Reconcile] Like toggled: post=%s user=%d liked=%t", postID, userID, !wasLiked)
	return nil
}

// BeginCaptionEdit opens (or resumes) the caption draft for a post,
// pre-filled from the current canonical caption and hashtags.
func (r *Reconciler) BeginCaptionEdit(postID string) (draft string, err error) {
	post, ok := r.store.Get(postID)
	if !ok {
		return "", model.ErrPostNotFound
	}
	key := postDraftKey(postID)
	r.Edits.Begin(key, model.DenormalizeCaption(post.Caption, post.Hashtags))
	draft, _ = r.Edits.Get(key)
	return draft, nil
}

// BeginCommentEdit opens (or resumes) the text draft for a comment.
func (r *Reconciler) BeginCommentEdit(postID, commentID string) (draft string, err error) {
	post, ok := r.store.Get(postID)
	if !ok {
		return "", model.ErrPostNotFound
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return "", model.ErrCommentNotFound
	}
	key := commentDraftKey(commentID)
	r.Edits.Begin(key, comment.Text)
	draft, _ = r.Edits.Get(key)
	return draft, nil
}

func (r *Reconciler) notifyError(message string) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(notify.Notification{Level: notify.LevelError, Message: message})
}
