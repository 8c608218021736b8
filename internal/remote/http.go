package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"xbarclient/internal/model"
)

// HTTPClient talks JSON over REST to the backend. It carries no
// request timeout: an issued operation runs until the server settles
// it, and the caller's context is the only way to bail out early.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)
var _ TokenSetter = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given API base URL, e.g.
// "https://xbar.example.com/api".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// SetToken sets the bearer token attached to subsequent requests.
// An empty token clears it.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Authenticate(ctx context.Context, identifier, password string) (*model.AuthResponse, error) {
	body := map[string]string{"identifier": identifier, "password": password}

	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, asAuthError(err)
	}
	return &resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, username, password string) (*model.AuthResponse, error) {
	body := map[string]string{"email": email, "username": username, "password": password}

	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) FetchUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatInt(id, 10), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPatch, "/users/"+strconv.FormatInt(id, 10), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) FetchFeed(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(ctx, http.MethodGet, "/feed", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) FetchUserPosts(ctx context.Context, userID int64) ([]model.Post, error) {
	var posts []model.Post
	path := "/users/" + strconv.FormatInt(userID, 10) + "/posts"
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) CreatePost(ctx context.Context, authorID int64, imageURL, caption string) (*model.Post, error) {
	body := map[string]any{"author_id": authorID, "imageUrl": imageURL, "caption": caption}

	var post model.Post
	if err := c.do(ctx, http.MethodPost, "/posts", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) UpdatePost(ctx context.Context, postID, caption string) (*model.Post, error) {
	body := map[string]string{"caption": caption}

	var post model.Post
	if err := c.do(ctx, http.MethodPatch, "/posts/"+url.PathEscape(postID), body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil)
}

func (c *HTTPClient) AddComment(ctx context.Context, postID string, authorID int64, text string) (*model.Comment, error) {
	body := map[string]any{"author_id": authorID, "text": text}
	path := "/posts/" + url.PathEscape(postID) + "/comments"

	var comment model.Comment
	if err := c.do(ctx, http.MethodPost, path, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) UpdateComment(ctx context.Context, commentID, text string) (*model.Comment, error) {
	body := map[string]string{"text": text}

	var comment model.Comment
	if err := c.do(ctx, http.MethodPatch, "/comments/"+url.PathEscape(commentID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID), nil, nil)
}

func (c *HTTPClient) LikePost(ctx context.Context, postID string, userID int64) (*model.Post, error) {
	body := map[string]any{"userId": userID}
	path := "/posts/" + url.PathEscape(postID) + "/like"

	var post model.Post
	if err := c.do(ctx, http.MethodPost, path, body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *HTTPClient) UnlikePost(ctx context.Context, postID string, userID int64) (*model.Post, error) {
	path := "/posts/" + url.PathEscape(postID) + "/like"

	var post model.Post
	if err := c.do(ctx, http.MethodDelete, path, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// errorBody matches the backend's error response shape:
// {"error": {"code": "...", "message": "..."}}
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do issues one request and decodes the response into out (when out is
// non-nil and the server returned a body).
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[RemoteStore] %s %s FAILED: %v", method, path, err)
		return &OperationError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &OperationError{Status: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		opErr := &OperationError{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
		var eb errorBody
		if jsonErr := json.Unmarshal(respBody, &eb); jsonErr == nil && eb.Error.Message != "" {
			opErr.Code = eb.Error.Code
			opErr.Message = eb.Error.Message
		}
		log.Printf("[RemoteStore] %s %s -> %d: %s", method, path, resp.StatusCode, opErr.Message)
		return opErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &OperationError{Status: resp.StatusCode, Message: "decode response: " + err.Error()}
		}
	}
	return nil
}

// asAuthError converts a 401 operation failure into an AuthError so
// login failures surface as a blocking prompt, not a toast.
func asAuthError(err error) error {
	if opErr, ok := err.(*OperationError); ok && opErr.Status == http.StatusUnauthorized {
		return &AuthError{Message: opErr.Message}
	}
	return err
}
