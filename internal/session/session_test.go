package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"xbarclient/internal/localstate"
	"xbarclient/internal/model"
	"xbarclient/internal/remote"
)

// mockRemote implements remote.Client with per-test function fields,
// plus SetToken tracking.
type mockRemote struct {
	authenticateFn func(ctx context.Context, identifier, password string) (*model.AuthResponse, error)
	registerFn     func(ctx context.Context, email, username, password string) (*model.AuthResponse, error)
	fetchUserFn    func(ctx context.Context, id int64) (*model.User, error)
	updateUserFn   func(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error)

	tokens []string // every SetToken call, in order
}

func (m *mockRemote) Authenticate(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, identifier, password)
	}
	return nil, &remote.AuthError{Message: "no stub"}
}

func (m *mockRemote) Register(ctx context.Context, email, username, password string) (*model.AuthResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, username, password)
	}
	return nil, errors.New("no stub")
}

func (m *mockRemote) FetchUser(ctx context.Context, id int64) (*model.User, error) {
	if m.fetchUserFn != nil {
		return m.fetchUserFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockRemote) UpdateUser(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, id, req)
	}
	return nil, errors.New("no stub")
}

func (m *mockRemote) FetchFeed(ctx context.Context) ([]model.Post, error) { return nil, nil }
func (m *mockRemote) FetchUserPosts(ctx context.Context, userID int64) ([]model.Post, error) {
	return nil, nil
}
func (m *mockRemote) CreatePost(ctx context.Context, authorID int64, imageURL, caption string) (*model.Post, error) {
	return nil, errors.New("not implemented")
}
func (m *mockRemote) UpdatePost(ctx context.Context, postID, caption string) (*model.Post, error) {
	return nil, errors.New("not implemented")
}
func (m *mockRemote) DeletePost(ctx context.Context, postID string) error {
	return errors.New("not implemented")
}
func (m *mockRemote) AddComment(ctx context.Context, postID string, authorID int64, text string) (*model.Comment, error) {
	return nil, errors.New("not implemented")
}
func (m *mockRemote) UpdateComment(ctx context.Context, commentID, text string) (*model.Comment, error) {
	return nil, errors.New("not implemented")
}
func (m *mockRemote) DeleteComment(ctx context.Context, commentID string) error {
	return errors.New("not implemented")
}
func (m *mockRemote) LikePost(ctx context.Context, postID string, userID int64) (*model.Post, error) {
	return nil, errors.New("not implemented")
}
func (m *mockRemote) UnlikePost(ctx context.Context, postID string, userID int64) (*model.Post, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRemote) SetToken(token string) {
	m.tokens = append(m.tokens, token)
}

func openState(t *testing.T) *localstate.DB {
	t.Helper()
	db, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestManager_Login_PersistsIdentifier(t *testing.T) {
	state := openState(t)
	mock := &mockRemote{
		authenticateFn: func(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
			return &model.AuthResponse{
				User:        model.User{ID: 42, Username: "alice"},
				AccessToken: "tok-abc",
			}, nil
		},
	}
	m := NewManager(mock, state)

	user, err := m.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("user id = %d, want 42", user.ID)
	}
	if m.Current() == nil {
		t.Fatal("Current() is nil after login")
	}

	raw, found, _ := state.Get(localstate.KeyUserID)
	if !found || raw != "42" {
		t.Errorf("persisted id = (%q, %v), want (42, true)", raw, found)
	}
	if len(mock.tokens) == 0 || mock.tokens[len(mock.tokens)-1] != "tok-abc" {
		t.Errorf("token not set on remote client: %v", mock.tokens)
	}
}

func TestManager_Login_AuthErrorPassesThrough(t *testing.T) {
	mock := &mockRemote{
		authenticateFn: func(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
			return nil, &remote.AuthError{Message: "invalid credentials"}
		},
	}
	m := NewManager(mock, openState(t))

	_, err := m.Login(context.Background(), "alice", "wrong")

	var authErr *remote.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *remote.AuthError", err)
	}
	if m.Current() != nil {
		t.Error("session established despite auth failure")
	}
}

func TestManager_Restore_Success(t *testing.T) {
	state := openState(t)
	state.Set(localstate.KeyUserID, "7")

	mock := &mockRemote{
		fetchUserFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id != 7 {
				t.Errorf("FetchUser id = %d, want 7", id)
			}
			return &model.User{ID: 7, Username: "bob"}, nil
		},
	}
	m := NewManager(mock, state)

	user, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if user == nil || user.Username != "bob" {
		t.Fatalf("restored user = %+v", user)
	}
}

func TestManager_Restore_NothingPersisted(t *testing.T) {
	m := NewManager(&mockRemote{}, openState(t))

	user, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestManager_Restore_ClearsPersistedIDOnFailure(t *testing.T) {
	state := openState(t)
	state.Set(localstate.KeyUserID, "7")
	state.Set(localstate.KeyAccessToken, "stale")

	mock := &mockRemote{
		fetchUserFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, &remote.OperationError{Status: 404, Message: "user not found"}
		},
	}
	m := NewManager(mock, state)

	_, err := m.Restore(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if m.Current() != nil {
		t.Error("session established despite failed restore")
	}
	if _, found, _ := state.Get(localstate.KeyUserID); found {
		t.Error("persisted user id not cleared after failed restore")
	}
	if _, found, _ := state.Get(localstate.KeyAccessToken); found {
		t.Error("persisted token not cleared after failed restore")
	}
}

func TestManager_Logout_ClearsEverything(t *testing.T) {
	state := openState(t)
	mock := &mockRemote{
		authenticateFn: func(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
			return &model.AuthResponse{User: model.User{ID: 1, Username: "alice"}, AccessToken: "tok"}, nil
		},
	}
	m := NewManager(mock, state)
	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	m.Logout()

	if m.Current() != nil {
		t.Error("Current() not nil after logout")
	}
	if _, found, _ := state.Get(localstate.KeyUserID); found {
		t.Error("persisted id survived logout")
	}
	if mock.tokens[len(mock.tokens)-1] != "" {
		t.Error("remote token not cleared on logout")
	}
}

func TestManager_UpdateProfile(t *testing.T) {
	mock := &mockRemote{
		authenticateFn: func(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
			return &model.AuthResponse{User: model.User{ID: 1, Username: "alice", Bio: "old"}}, nil
		},
		updateUserFn: func(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
			return &model.User{ID: 1, Username: "alice", Bio: *req.Bio}, nil
		},
	}
	m := NewManager(mock, nil)
	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	bio := "new bio"
	user, err := m.UpdateProfile(context.Background(), model.UpdateProfileRequest{Bio: &bio})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if user.Bio != "new bio" || m.Current().Bio != "new bio" {
		t.Errorf("bio not refreshed with canonical result: %q", m.Current().Bio)
	}
}

func TestManager_UpdateProfile_RequiresSession(t *testing.T) {
	m := NewManager(&mockRemote{}, nil)

	_, err := m.UpdateProfile(context.Background(), model.UpdateProfileRequest{})
	if !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
}
