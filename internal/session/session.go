// Package session owns the authenticated user for the lifetime of the
// process and the persisted identifier that outlives it. It is
// constructed explicitly and injected into consumers; there is no
// ambient global user.
package session

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"xbarclient/internal/localstate"
	"xbarclient/internal/model"
	"xbarclient/internal/remote"
)

// Manager tracks the authenticated user. The zero state is
// unauthenticated; Restore, Login or Register move it forward, Logout
// moves it back. Logout clears the session but never touches the post
// collection.
type Manager struct {
	remote remote.Client
	state  *localstate.DB

	mu    sync.RWMutex
	user  *model.User
	token string
}

// NewManager creates an unauthenticated session manager. state may be
// nil, in which case nothing is persisted across runs.
func NewManager(remoteClient remote.Client, state *localstate.DB) *Manager {
	return &Manager{
		remote: remoteClient,
		state:  state,
	}
}

// Current returns the authenticated user, or nil.
func (m *Manager) Current() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// CurrentRef returns the embeddable reference for the authenticated
// user. ok is false when unauthenticated.
func (m *Manager) CurrentRef() (ref model.UserRef, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return model.UserRef{}, false
	}
	return m.user.Ref(), true
}

// Login authenticates and establishes the session. An *remote.AuthError
// passes through untouched so the caller can surface it as a blocking
// prompt.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	resp, err := m.remote.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	m.establish(&resp.User, resp.AccessToken)
	log.Printf("[Session] Logged in: user=%d username=%s", resp.User.ID, resp.User.Username)
	return m.Current(), nil
}

// Register creates an account and establishes the session.
func (m *Manager) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	resp, err := m.remote.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	m.establish(&resp.User, resp.AccessToken)
	log.Printf("[Session] Registered: user=%d username=%s", resp.User.ID, resp.User.Username)
	return m.Current(), nil
}

// Restore resolves the persisted identifier back to a full user at
// startup. Returns (nil, nil) when nothing is persisted. On resolution
// failure the persisted identifier is cleared and the error returned;
// the caller proceeds unauthenticated.
func (m *Manager) Restore(ctx context.Context) (*model.User, error) {
	if m.state == nil {
		return nil, nil
	}

	raw, found, err := m.state.Get(localstate.KeyUserID)
	if err != nil {
		return nil, fmt.Errorf("read persisted session: %w", err)
	}
	if !found {
		return nil, nil
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.clearPersisted()
		return nil, fmt.Errorf("corrupt persisted user id %q", raw)
	}

	token, _, _ := m.state.Get(localstate.KeyAccessToken)
	if token != "" && tokenExpired(token) {
		log.Printf("[Session] Persisted token expired, discarding")
		token = ""
	}
	if setter, ok := m.remote.(remote.TokenSetter); ok {
		setter.SetToken(token)
	}

	user, err := m.remote.FetchUser(ctx, userID)
	if err != nil {
		log.Printf("[Session] Restore failed for user=%d: %v", userID, err)
		m.clearPersisted()
		if setter, ok := m.remote.(remote.TokenSetter); ok {
			setter.SetToken("")
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	m.user = user
	m.token = token
	m.mu.Unlock()

	log.Printf("[Session] Restored: user=%d username=%s", user.ID, user.Username)
	return user, nil
}

// UpdateProfile applies a partial profile update and refreshes the
// cached user with the canonical result.
func (m *Manager) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	current := m.Current()
	if current == nil {
		return nil, model.ErrNotAuthenticated
	}

	user, err := m.remote.UpdateUser(ctx, current.ID, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	log.Printf("[Session] Profile updated: user=%d", user.ID)
	return user, nil
}

// Logout clears the in-memory session and the persisted identifier.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	m.clearPersisted()
	if setter, ok := m.remote.(remote.TokenSetter); ok {
		setter.SetToken("")
	}
	log.Printf("[Session] Logged out")
}

func (m *Manager) establish(user *model.User, token string) {
	m.mu.Lock()
	m.user = user
	m.token = token
	m.mu.Unlock()

	if setter, ok := m.remote.(remote.TokenSetter); ok {
		setter.SetToken(token)
	}
	if m.state != nil {
		if err := m.state.Set(localstate.KeyUserID, strconv.FormatInt(user.ID, 10)); err != nil {
			log.Printf("[Session] Failed to persist user id: %v", err)
		}
		if token != "" {
			if err := m.state.Set(localstate.KeyAccessToken, token); err != nil {
				log.Printf("[Session] Failed to persist token: %v", err)
			}
		}
	}
}

func (m *Manager) clearPersisted() {
	if m.state == nil {
		return
	}
	if err := m.state.Delete(localstate.KeyUserID); err != nil {
		log.Printf("[Session] Failed to clear persisted user id: %v", err)
	}
	if err := m.state.Delete(localstate.KeyAccessToken); err != nil {
		log.Printf("[Session] Failed to clear persisted token: %v", err)
	}
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; the client has no signing secret, and the backend rejects
// forged tokens anyway.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
