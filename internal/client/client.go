// Package client talks to the ExplainIt backend over HTTP. It is the gateway
// the client-side stores use for listings, quizzes, generation and accounts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"explainit-service/internal/domain"
)

// APIError is a non-2xx response. Message carries the server's {error} text
// when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ServerMessage is the {error} text the server sent, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// Unwrap maps well-known statuses onto domain errors so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrNotAuthenticated
	case http.StatusConflict:
		return domain.ErrEmailTaken
	case http.StatusTooManyRequests:
		return domain.ErrGeneratorBusy
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL, e.g. "http://localhost:3000".
// Generation blocks until the video is rendered, so the default client has no
// overall timeout; callers bound requests with their context.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL is the server root; media paths like /posted/x.mp4 resolve against it.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListVideos returns the posted media filenames.
func (c *Client) ListVideos(ctx context.Context) ([]string, error) {
	var files []string
	if err := c.do(ctx, http.MethodGet, "/api/videos", "", nil, &files); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return files, nil
}

// FetchQuiz returns the quiz for videoID; a 404 is domain.ErrQuizNotFound.
func (c *Client) FetchQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	var doc domain.QuizDocument
	err := c.do(ctx, http.MethodGet, "/api/quiz/"+url.PathEscape(videoID), "", nil, &doc)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDocument{}, fmt.Errorf("fetch quiz: %w", err)
	}
	return doc, nil
}

func (c *Client) Characters(ctx context.Context) (map[string]domain.CharacterInfo, error) {
	characters := make(map[string]domain.CharacterInfo)
	if err := c.do(ctx, http.MethodGet, "/api/characters", "", nil, &characters); err != nil {
		return nil, fmt.Errorf("characters: %w", err)
	}
	return characters, nil
}

// Generate blocks until the server's generator run finishes. Failures are
// returned as *APIError carrying the server message.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) error {
	return c.do(ctx, http.MethodPost, "/api/generate", "", req, nil)
}

type credentials struct {
	domain.Profile
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, profile domain.Profile, password string) (domain.Session, error) {
	var session domain.Session
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", credentials{Profile: profile, Password: password}, &session)
	return session, err
}

// Login returns domain.ErrInvalidCredentials for any rejected login.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var session domain.Session
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &session)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return session, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (domain.Profile, error) {
	var profile domain.Profile
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &profile)
	return profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (domain.Profile, error) {
	var profile domain.Profile
	err := c.do(ctx, http.MethodPatch, "/api/auth/profile", token, update, &profile)
	return profile, err
}

// SubmitQuizResult reports a finished quiz and returns the points awarded.
func (c *Client) SubmitQuizResult(ctx context.Context, token, videoID string, score, total int) (int, error) {
	var resp struct {
		Points int `json:"points"`
	}
	body := map[string]int{"score": score, "total": total}
	path := "/api/quiz/" + url.PathEscape(domain.NormalizeVideoID(videoID)) + "/result"
	if err := c.do(ctx, http.MethodPost, path, token, body, &resp); err != nil {
		return 0, fmt.Errorf("submit quiz result: %w", err)
	}
	return resp.Points, nil
}

// Leaderboard fetches a board; token may be empty for an anonymous view.
func (c *Client) Leaderboard(ctx context.Context, token string, scope domain.Scope, period domain.Period) (domain.Leaderboard, error) {
	q := url.Values{}
	q.Set("scope", string(scope))
	q.Set("period", string(period))
	var board domain.Leaderboard
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard?"+q.Encode(), token, nil, &board); err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: %w", err)
	}
	return board, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
