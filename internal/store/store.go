// Package store holds the client's canonical local view of the feed:
// an ordered, observable, in-memory collection of posts. It is the
// single source of truth every view renders from; the reconciliation
// layer is its only writer.
package store

import (
	"log"
	"sort"
	"sync"

	"xbarclient/internal/model"
)

// Listener is invoked synchronously after every mutation completes.
type Listener func()

// PostStore is an ordered collection of posts, newest first. All
// methods are safe for concurrent use; mutations notify subscribed
// listeners after the mutation is visible.
type PostStore struct {
	mu        sync.RWMutex
	posts     []model.Post
	listeners map[int]Listener
	nextSubID int
}

// NewPostStore returns an empty store.
func NewPostStore() *PostStore {
	return &PostStore{
		listeners: make(map[int]Listener),
	}
}

// SetAll replaces the whole collection, e.g. on initial feed load.
// Posts are sorted by CreatedAt descending regardless of input order.
func (s *PostStore) SetAll(posts []model.Post) {
	s.mu.Lock()
	s.posts = make([]model.Post, len(posts))
	for i := range posts {
		s.posts[i] = posts[i].Clone()
	}
	sortNewestFirst(s.posts)
	s.mu.Unlock()

	log.Printf("[PostStore] SetAll: %d posts", len(posts))
	s.notify()
}

// Insert adds a post and re-establishes CreatedAt-descending order.
// The optimistic and the confirmed timestamp of a post can diverge, so
// insertion order alone is not trusted.
func (s *PostStore) Insert(post model.Post) {
	s.mu.Lock()
	s.posts = append([]model.Post{post.Clone()}, s.posts...)
	sortNewestFirst(s.posts)
	s.mu.Unlock()

	log.Printf("[PostStore] Insert: post=%s", post.ID)
	s.notify()
}

// Replace substitutes the post with the matching id wholesale,
// preserving its position. A missing id is a silent miss: the
// collection is left unchanged and listeners are not notified.
func (s *PostStore) Replace(postID string, post model.Post) {
	s.mu.Lock()
	idx := s.indexOf(postID)
	if idx < 0 {
		s.mu.Unlock()
		log.Printf("[PostStore] Replace miss: post=%s", postID)
		return
	}
	s.posts[idx] = post.Clone()
	s.mu.Unlock()

	s.notify()
}

// Remove filters out the post with the matching id. Its comments go
// with it; nothing else references them. Missing ids are a no-op.
func (s *PostStore) Remove(postID string) {
	s.mu.Lock()
	idx := s.indexOf(postID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.posts = append(s.posts[:idx], s.posts[idx+1:]...)
	s.mu.Unlock()

	log.Printf("[PostStore] Remove: post=%s", postID)
	s.notify()
}

// Read returns the current ordered sequence as a deep copy. Callers
// may keep or mutate the result freely; it never aliases store state.
func (s *PostStore) Read() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Post, len(s.posts))
	for i := range s.posts {
		out[i] = s.posts[i].Clone()
	}
	return out
}

// Get returns a copy of the post with the given id.
func (s *PostStore) Get(postID string) (model.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(postID)
	if idx < 0 {
		return model.Post{}, false
	}
	return s.posts[idx].Clone(), true
}

// Len returns the number of posts.
func (s *PostStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Reset clears the collection without notifying listeners. Used on
// teardown; logout does not reset the feed, an explicit caller does.
func (s *PostStore) Reset() {
	s.mu.Lock()
	s.posts = nil
	s.mu.Unlock()
}

// Subscribe registers a listener and returns its unsubscribe func.
// Listeners run synchronously, in no particular order, after each
// mutation; they may call Read but must not mutate the store.
func (s *PostStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify runs outside the write lock so listeners can call Read.
func (s *PostStore) notify() {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// indexOf must be called with the lock held.
func (s *PostStore) indexOf(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func sortNewestFirst(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
