package integration_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"xbarclient/internal/localstate"
	"xbarclient/internal/mockapi"
	"xbarclient/internal/model"
	"xbarclient/internal/notify"
	"xbarclient/internal/reconcile"
	"xbarclient/internal/remote"
	"xbarclient/internal/search"
	"xbarclient/internal/session"
	"xbarclient/internal/store"
)

// harness wires the whole client SDK against an in-process backend.
type harness struct {
	backend    *mockapi.Server
	server     *httptest.Server
	client     *remote.HTTPClient
	state      *localstate.DB
	session    *session.Manager
	store      *store.PostStore
	reconciler *reconcile.Reconciler
	bus        *notify.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := mockapi.NewServer()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	state, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { state.Close() })

	client := remote.NewHTTPClient(server.URL)
	bus := notify.NewBus()
	postStore := store.NewPostStore()

	return &harness{
		backend:    backend,
		server:     server,
		client:     client,
		state:      state,
		session:    session.NewManager(client, state),
		store:      postStore,
		reconciler: reconcile.New(postStore, client, bus),
		bus:        bus,
	}
}

func (h *harness) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := h.session.Register(context.Background(), username+"@example.com", username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestFullPostLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice")

	// Create: caption normalized authoritatively by the server.
	post, err := h.reconciler.CreatePost(ctx, user.Ref(), "https://img.example/1.jpg", "Sunset today! #travel #nature")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Caption != "Sunset today!" {
		t.Errorf("caption = %q, want %q", post.Caption, "Sunset today!")
	}
	if len(post.Hashtags) != 2 || post.Hashtags[0] != "travel" || post.Hashtags[1] != "nature" {
		t.Errorf("hashtags = %v, want [travel nature]", post.Hashtags)
	}

	// Two comments land in confirmation order.
	if _, err := h.reconciler.AddComment(ctx, post.ID, user.Ref(), "first!"); err != nil {
		t.Fatalf("first comment: %v", err)
	}
	if _, err := h.reconciler.AddComment(ctx, post.ID, user.Ref(), "second!"); err != nil {
		t.Fatalf("second comment: %v", err)
	}
	stored, _ := h.store.Get(post.ID)
	if len(stored.Comments) != 2 || stored.Comments[0].Text != "first!" || stored.Comments[1].Text != "second!" {
		t.Fatalf("comments = %+v, want confirmation order, none lost, none duplicated", stored.Comments)
	}

	// Like toggle round trip: the confirmed like carries a server id.
	if err := h.reconciler.ToggleLike(ctx, post.ID, user.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	stored, _ = h.store.Get(post.ID)
	if !stored.IsLikedBy(user.ID) || stored.Likes[0].ID == "" {
		t.Errorf("likes = %+v, want confirmed like with id", stored.Likes)
	}
	if err := h.reconciler.ToggleLike(ctx, post.ID, user.ID); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	stored, _ = h.store.Get(post.ID)
	if stored.IsLikedBy(user.ID) || stored.LikeCount() != 0 {
		t.Errorf("like state after double toggle = %+v", stored.Likes)
	}

	// Edit: server re-normalizes.
	updated, err := h.reconciler.UpdatePostCaption(ctx, post.ID, "Sunset tonight #sky")
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Caption != "Sunset tonight" || len(updated.Hashtags) != 1 {
		t.Errorf("updated post = %q %v", updated.Caption, updated.Hashtags)
	}

	// Delete takes the comments with it.
	if err := h.reconciler.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if h.store.Len() != 0 {
		t.Error("store not empty after delete")
	}
	feed, err := h.client.FetchFeed(ctx)
	if err != nil {
		t.Fatalf("fetch feed: %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("backend feed still has %d posts", len(feed))
	}
}

func TestSessionRestoreAcrossRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice")

	// A fresh session manager over the same state file is a "restart".
	client2 := remote.NewHTTPClient(h.server.URL)
	sess2 := session.NewManager(client2, h.state)

	restored, err := sess2.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == nil || restored.ID != user.ID {
		t.Fatalf("restored = %+v, want user %d", restored, user.ID)
	}

	// The restored token authorizes mutations.
	if _, err := client2.CreatePost(ctx, user.ID, "https://img.example/2.jpg", "after restart #back"); err != nil {
		t.Fatalf("create post with restored token: %v", err)
	}

	// Logout clears the persisted identifier; the next restore finds
	// nothing.
	sess2.Logout()
	again, err := session.NewManager(remote.NewHTTPClient(h.server.URL), h.state).Restore(ctx)
	if err != nil {
		t.Fatalf("restore after logout: %v", err)
	}
	if again != nil {
		t.Errorf("restored %+v after logout, want nil", again)
	}
}

func TestLoginFailureIsAuthError(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")
	h.session.Logout()

	_, err := h.session.Login(context.Background(), "alice", "wrong-password")

	var authErr *remote.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *remote.AuthError", err)
	}
}

func TestNotFoundSurfacesAsOperationError(t *testing.T) {
	h := newHarness(t)
	h.register(t, "alice")

	err := h.reconciler.DeletePost(context.Background(), "no-such-post")
	if err == nil {
		t.Fatal("expected error")
	}

	var opErr *remote.OperationError
	if !errors.As(err, &opErr) || !opErr.NotFound() {
		t.Fatalf("error = %v, want not-found OperationError", err)
	}
	// The failure raised exactly one transient error notification.
	last := h.bus.Last()
	if last == nil || last.Level != notify.LevelError {
		t.Errorf("last notification = %+v, want error toast", last)
	}
}

func TestHashtagSearchOverSeededFeed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice")

	for _, caption := range []string{"morning walk #nature", "lunch #food", "trail run #nature #fitness"} {
		if _, err := h.reconciler.CreatePost(ctx, user.Ref(), "https://img.example/x.jpg", caption); err != nil {
			t.Fatalf("create %q: %v", caption, err)
		}
	}

	matches := search.ByHashtags(h.store.Read(), search.ParseQuery("show me #nature"))
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for _, p := range matches {
		found := false
		for _, tag := range p.Hashtags {
			if tag == "nature" {
				found = true
			}
		}
		if !found {
			t.Errorf("post %s matched without the tag: %v", p.ID, p.Hashtags)
		}
	}
}

func TestOwnershipEnforcedByBackend(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice")

	post, err := h.reconciler.CreatePost(ctx, alice.Ref(), "https://img.example/1.jpg", "mine #own")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	// Bob takes over the client; deleting Alice's post must fail and
	// leave the local collection intact.
	h.session.Logout()
	h.register(t, "bob")
	if err := h.reconciler.LoadFeed(ctx); err != nil {
		t.Fatalf("load feed: %v", err)
	}

	if err := h.reconciler.DeletePost(ctx, post.ID); err == nil {
		t.Fatal("expected forbidden error")
	}
	if _, ok := h.store.Get(post.ID); !ok {
		t.Error("post vanished locally despite failed delete")
	}
}
