// Package mockapi is an in-process stand-in for the real backend. It
// implements the same REST surface the client consumes, with in-memory
// state, bcrypt credentials and JWT bearer tokens, and performs the
// authoritative caption/hashtag normalization the client only previews.
// Integration tests and the CLI's offline mode run against it.
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"xbarclient/internal/httputil"
	"xbarclient/internal/model"
)

const tokenMaxAge = 24 * time.Hour

type account struct {
	user         model.User
	passwordHash []byte
}

// Server holds the mock backend's state and router.
type Server struct {
	mu         sync.Mutex
	secret     []byte
	accounts   map[int64]*account
	byUsername map[string]int64
	byEmail    map[string]int64
	nextUserID int64
	posts      []*model.Post // newest first

	router chi.Router
}

// NewServer returns an empty mock backend. Use Seed to add fixtures.
func NewServer() *Server {
	s := &Server{
		secret:     []byte("mockapi-secret"),
		accounts:   make(map[int64]*account),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		nextUserID: 1,
	}

	r := chi.NewRouter()

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)

	r.Get("/users/{id}", s.handleGetUser)
	r.Get("/users/{id}/posts", s.handleGetUserPosts)
	r.Get("/feed", s.handleGetFeed)

	// Mutations require a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Patch("/users/{id}", s.handleUpdateUser)

		r.Post("/posts", s.handleCreatePost)
		r.Patch("/posts/{id}", s.handleUpdatePost)
		r.Delete("/posts/{id}", s.handleDeletePost)

		r.Post("/posts/{id}/comments", s.handleAddComment)
		r.Patch("/comments/{id}", s.handleUpdateComment)
		r.Delete("/comments/{id}", s.handleDeleteComment)

		r.Post("/posts/{id}/like", s.handleLikePost)
		r.Delete("/posts/{id}/like", s.handleUnlikePost)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// =============================================================================
// AUTH
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	id, ok := s.byUsername[req.Identifier]
	if !ok {
		id, ok = s.byEmail[req.Identifier]
	}
	var acct *account
	if ok {
		acct = s.accounts[id]
	}
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		httputil.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	s.writeAuthResponse(w, acct.user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Email == "" {
		httputil.WriteBadRequest(w, "Email, username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to hash password")
		return
	}

	s.mu.Lock()
	if _, taken := s.byUsername[req.Username]; taken {
		s.mu.Unlock()
		httputil.WriteConflict(w, "Username already exists")
		return
	}
	if _, taken := s.byEmail[req.Email]; taken {
		s.mu.Unlock()
		httputil.WriteConflict(w, "Email already exists")
		return
	}
	user := model.User{
		ID:              s.nextUserID,
		Username:        req.Username,
		Email:           req.Email,
		ProfileImageURL: "https://i.pravatar.cc/150?u=" + req.Username,
		CreatedAt:       time.Now(),
	}
	s.nextUserID++
	s.accounts[user.ID] = &account{user: user, passwordHash: hash}
	s.byUsername[user.Username] = user.ID
	s.byEmail[user.Email] = user.ID
	s.mu.Unlock()

	s.writeAuthResponse(w, user)
}

func (s *Server) writeAuthResponse(w http.ResponseWriter, user model.User) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(tokenMaxAge).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to sign token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{User: user, AccessToken: token})
}

type contextKey string

const callerIDKey contextKey = "caller_id"

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.WriteUnauthorized(w, "Missing authentication token")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			httputil.WriteUnauthorized(w, "Invalid authentication token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httputil.WriteUnauthorized(w, "Invalid token claims")
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			httputil.WriteUnauthorized(w, "Invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), callerIDKey, int64(userIDFloat))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) int64 {
	id, _ := r.Context().Value(callerIDKey).(int64)
	return id
}

// =============================================================================
// USERS
// =============================================================================

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id")
		return
	}

	s.mu.Lock()
	acct := s.accounts[id]
	s.mu.Unlock()

	if acct == nil {
		httputil.WriteNotFound(w, "User not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id")
		return
	}
	if callerID(r) != id {
		httputil.WriteForbidden(w, "Cannot update another user's profile")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[id]
	if acct == nil {
		httputil.WriteNotFound(w, "User not found")
		return
	}
	if req.Username != nil && *req.Username != acct.user.Username {
		if _, taken := s.byUsername[*req.Username]; taken {
			httputil.WriteConflict(w, "Username already exists")
			return
		}
		delete(s.byUsername, acct.user.Username)
		acct.user.Username = *req.Username
		s.byUsername[acct.user.Username] = id
	}
	if req.Bio != nil {
		acct.user.Bio = *req.Bio
	}
	if req.ProfileImageURL != nil {
		acct.user.ProfileImageURL = *req.ProfileImageURL
	}

	// Denormalized author refs on posts and comments follow the profile.
	ref := acct.user.Ref()
	for _, p := range s.posts {
		if p.Author.ID == id {
			p.Author = ref
		}
		for i := range p.Comments {
			if p.Comments[i].Author.ID == id {
				p.Comments[i].Author = ref
			}
		}
	}

	httputil.WriteJSON(w, http.StatusOK, acct.user)
}

// =============================================================================
// FEED / POSTS
// =============================================================================

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUserPosts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id")
		return
	}

	s.mu.Lock()
	out := make([]model.Post, 0)
	for _, p := range s.posts {
		if p.Author.ID == id {
			out = append(out, p.Clone())
		}
	}
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"imageUrl"`
		Caption  string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ImageURL == "" {
		httputil.WriteBadRequest(w, "An image is required")
		return
	}
	if strings.TrimSpace(req.Caption) == "" {
		httputil.WriteBadRequest(w, "A caption is required")
		return
	}
	if len(req.Caption) > model.MaxCaptionLength {
		httputil.WriteBadRequest(w, "Caption too long")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[callerID(r)]
	if acct == nil {
		httputil.WriteUnauthorized(w, "Unknown user")
		return
	}

	caption, hashtags := model.NormalizeCaption(req.Caption)
	post := &model.Post{
		ID:        uuid.NewString(),
		Author:    acct.user.Ref(),
		ImageURL:  req.ImageURL,
		Caption:   caption,
		Hashtags:  hashtags,
		Likes:     []model.Like{},
		Comments:  []model.Comment{},
		CreatedAt: time.Now(),
	}
	s.posts = append([]*model.Post{post}, s.posts...)

	httputil.WriteJSON(w, http.StatusCreated, post.Clone())
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Caption) == "" {
		httputil.WriteBadRequest(w, "A caption is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPost(chi.URLParam(r, "id"))
	if post == nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}
	if post.Author.ID != callerID(r) {
		httputil.WriteForbidden(w, "Not the owner of this post")
		return
	}

	post.Caption, post.Hashtags = model.NormalizeCaption(req.Caption)
	httputil.WriteJSON(w, http.StatusOK, post.Clone())
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID := chi.URLParam(r, "id")
	for i, p := range s.posts {
		if p.ID == postID {
			if p.Author.ID != callerID(r) {
				httputil.WriteForbidden(w, "Not the owner of this post")
				return
			}
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	httputil.WriteNotFound(w, "Post not found")
}

// =============================================================================
// COMMENTS
// =============================================================================

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.WriteBadRequest(w, "Comment text is required")
		return
	}
	if len(req.Text) > model.MaxCommentLength {
		httputil.WriteBadRequest(w, "Comment text too long")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPost(chi.URLParam(r, "id"))
	if post == nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}
	acct := s.accounts[callerID(r)]
	if acct == nil {
		httputil.WriteUnauthorized(w, "Unknown user")
		return
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		Author:    acct.user.Ref(),
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	post.Comments = append(post.Comments, comment)

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.WriteBadRequest(w, "Comment text is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, comment := s.findComment(chi.URLParam(r, "id"))
	if comment == nil {
		httputil.WriteNotFound(w, "Comment not found")
		return
	}
	if comment.Author.ID != callerID(r) {
		httputil.WriteForbidden(w, "Not the owner of this comment")
		return
	}

	comment.Text = req.Text
	httputil.WriteJSON(w, http.StatusOK, *comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	commentID := chi.URLParam(r, "id")
	for _, p := range s.posts {
		for i := range p.Comments {
			if p.Comments[i].ID == commentID {
				if p.Comments[i].Author.ID != callerID(r) {
					httputil.WriteForbidden(w, "Not the owner of this comment")
					return
				}
				p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	httputil.WriteNotFound(w, "Comment not found")
}

// =============================================================================
// LIKES
// =============================================================================

func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPost(chi.URLParam(r, "id"))
	if post == nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}

	userID := callerID(r)
	// At most one like per (post, user).
	if post.IsLikedBy(userID) {
		httputil.WriteConflict(w, "Post already liked")
		return
	}
	post.Likes = append(post.Likes, model.Like{ID: uuid.NewString(), UserID: userID})

	httputil.WriteJSON(w, http.StatusOK, post.Clone())
}

func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.findPost(chi.URLParam(r, "id"))
	if post == nil {
		httputil.WriteNotFound(w, "Post not found")
		return
	}

	userID := callerID(r)
	if !post.IsLikedBy(userID) {
		httputil.WriteConflict(w, "Post not liked")
		return
	}
	kept := post.Likes[:0:0]
	for _, l := range post.Likes {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	post.Likes = kept

	httputil.WriteJSON(w, http.StatusOK, post.Clone())
}

// findPost must be called with the lock held.
func (s *Server) findPost(postID string) *model.Post {
	for _, p := range s.posts {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

// findComment must be called with the lock held.
func (s *Server) findComment(commentID string) (*model.Post, *model.Comment) {
	for _, p := range s.posts {
		for i := range p.Comments {
			if p.Comments[i].ID == commentID {
				return p, &p.Comments[i]
			}
		}
	}
	return nil, nil
}
