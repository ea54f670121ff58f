package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"explainit-service/internal/domain"
)

func TestListVideosAndQuiz(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"001.mp4", "002.mp4"})
	})
	mux.HandleFunc("GET /api/quiz/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "002" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"quiz not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"questions":[{"question":"Q?","choices":["a","b"],"correct_index":1}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL + "/")
	ctx := context.Background()

	files, err := c.ListVideos(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	doc, err := c.FetchQuiz(ctx, "002")
	if err != nil {
		t.Fatalf("fetch quiz: %v", err)
	}
	if len(doc.Questions) != 1 || *doc.Questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected quiz %+v", doc)
	}

	if _, err := c.FetchQuiz(ctx, "001"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestGenerateSurfacesServerMessage(t *testing.T) {
	var got domain.GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Script exited with code 1"}`))
	}))
	defer server.Close()

	err := New(server.URL).Generate(context.Background(), domain.GenerationRequest{
		Character1: "Rick", Character2: "Morty", Topic: "Gravity", Duration: 30,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Script exited with code 1" {
		t.Fatalf("expected server message, got %v", err)
	}
	if got.Character1 != "Rick" || got.Duration != 30 {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestLoginMapsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "password" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Session{Token: "tok", Profile: domain.Profile{ID: "u1", Email: body["email"]}})
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.Login(context.Background(), "demo@example.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	session, err := c.Login(context.Background(), "demo@example.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token != "tok" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestAuthenticatedCallsSendBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/quiz/002/result":
			_, _ = w.Write([]byte(`{"points":67}`))
		case "/api/auth/me":
			_, _ = w.Write([]byte(`{"id":"u1","name":"Demo"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	points, err := c.SubmitQuizResult(context.Background(), "tok", "002.mp4", 2, 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if points != 67 {
		t.Fatalf("expected 67 points, got %d", points)
	}
	if _, err := c.Me(context.Background(), "other"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
