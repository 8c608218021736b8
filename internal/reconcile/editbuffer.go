package reconcile

import "sync"

// EditBuffer holds in-progress edit drafts keyed by entity. Drafts live
// outside the post collection store, so a background Replace of the
// parent post never clobbers text the user is still typing: the last
// local edit wins over a stale refresh until it is saved or cancelled.
type EditBuffer struct {
	mu     sync.RWMutex
	drafts map[string]string
}

// Draft keys.
func postDraftKey(postID string) string       { return "post:" + postID }
func commentDraftKey(commentID string) string { return "comment:" + commentID }

// NewEditBuffer returns an empty buffer.
func NewEditBuffer() *EditBuffer {
	return &EditBuffer{drafts: make(map[string]string)}
}

// Begin opens a draft with initial text. Re-opening an existing draft
// keeps the current text.
func (b *EditBuffer) Begin(key, initial string) {
	b.mu.Lock()
	if _, open := b.drafts[key]; !open {
		b.drafts[key] = initial
	}
	b.mu.Unlock()
}

// Set updates an open draft. Setting an unopened draft opens it.
func (b *EditBuffer) Set(key, text string) {
	b.mu.Lock()
	b.drafts[key] = text
	b.mu.Unlock()
}

// Get returns the draft text; open is false when no draft exists.
func (b *EditBuffer) Get(key string) (text string, open bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	text, open = b.drafts[key]
	return text, open
}

// End discards the draft after a save or cancel.
func (b *EditBuffer) End(key string) {
	b.mu.Lock()
	delete(b.drafts, key)
	b.mu.Unlock()
}

// PostDraftKey returns the draft key for a post caption edit.
func PostDraftKey(postID string) string { return postDraftKey(postID) }

// CommentDraftKey returns the draft key for a comment text edit.
func CommentDraftKey(commentID string) string { return commentDraftKey(commentID) }
