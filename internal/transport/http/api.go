package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"explainit-service/internal/app"
	"explainit-service/internal/domain"
	"explainit-service/internal/infra/process"
)

// API serves the REST surface of the feed: listing, quizzes, characters,
// generation, accounts and leaderboards.
type API struct {
	catalog     *app.CatalogService
	generation  *app.GenerationService
	auth        *app.AuthService
	leaderboard *app.LeaderboardService
}

func NewAPI(catalog *app.CatalogService, generation *app.GenerationService, auth *app.AuthService, leaderboard *app.LeaderboardService) *API {
	return &API{
		catalog:     catalog,
		generation:  generation,
		auth:        auth,
		leaderboard: leaderboard,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrInvalidGeneration),
		errors.Is(err, domain.ErrInvalidQuizResult),
		errors.Is(err, domain.ErrEmptyComment):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGeneratorBusy):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (a *API) session(r *http.Request) (domain.Session, error) {
	token := bearerToken(r)
	if token == "" {
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	return a.auth.Authenticate(r.Context(), token)
}

func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) ListVideos(w http.ResponseWriter, r *http.Request) {
	files, err := a.catalog.Videos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (a *API) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.catalog.Quiz(r.Context(), r.PathValue("videoId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) Characters(w http.ResponseWriter, r *http.Request) {
	characters, err := a.catalog.Characters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, characters)
}

type generateRequest struct {
	Character1 string        `json:"character1"`
	Character2 string        `json:"character2"`
	Topic      string        `json:"topic"`
	Duration   *durationSecs `json:"duration"`
}

var errBadDuration = errors.New("duration must be a positive integer")

// durationSecs accepts 30 as well as "30"; form-driven clients send strings.
type durationSecs int

func (d *durationSecs) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errBadDuration
	}
	*d = durationSecs(n)
	return nil
}

func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decode(r, &body); err != nil {
		if errors.Is(err, errBadDuration) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: errBadDuration.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if body.Character1 == "" || body.Character2 == "" || body.Duration == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing character1, character2, or duration"})
		return
	}
	req := domain.GenerationRequest{
		Character1: body.Character1,
		Character2: body.Character2,
		Topic:      body.Topic,
		Duration:   int(*body.Duration),
	}
	if err := a.generation.Generate(r.Context(), req); err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("Script exited with code %d", exitErr.Code)})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type signupRequest struct {
	domain.Profile
	Password string `json:"password"`
}

func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	session, err := a.auth.Signup(r.Context(), body.Profile, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	session, err := a.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Profile)
}

func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := decode(r, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	profile, err := a.auth.UpdateProfile(r.Context(), bearerToken(r), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type quizResultRequest struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type quizResultResponse struct {
	Points int `json:"points"`
}

func (a *API) SubmitQuizResult(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body quizResultRequest
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	points, err := a.leaderboard.RecordQuizResult(r.Context(), session.Profile, body.Score, body.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("user %s scored %d/%d on %s (+%d)", session.Profile.ID, body.Score, body.Total, r.PathValue("videoId"), points)
	writeJSON(w, http.StatusOK, quizResultResponse{Points: points})
}

// Leaderboard personalizes the board when a valid bearer token is present;
// anonymous callers get the plain board.
func (a *API) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := app.LeaderboardQuery{
		Period: domain.ParsePeriod(r.URL.Query().Get("period")),
		Scope:  domain.ParseScope(r.URL.Query().Get("scope")),
	}
	if session, err := a.session(r); err == nil {
		q.Viewer = &session.Profile
	}
	entries, err := a.leaderboard.Board(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Leaderboard{Period: q.Period, Entries: entries, UpdatedAt: time.Now()})
}
