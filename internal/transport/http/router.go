package http

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// RouterOptions configures static directories and rate limits.
type RouterOptions struct {
	PostedDir string
	PublicDir string
	// Login and Generate throttle the credential and generator endpoints.
	// A nil limiter disables throttling for that route group.
	Login    *limiter.Limiter
	Generate *limiter.Limiter
}

// NewRouter mounts the REST API, the leaderboard websocket and static files.
func NewRouter(api *API, ws *WSHandler, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", api.Health)
	mux.HandleFunc("GET /api/videos", api.ListVideos)
	mux.HandleFunc("GET /api/quiz/{videoId}", api.GetQuiz)
	mux.HandleFunc("POST /api/quiz/{videoId}/result", api.SubmitQuizResult)
	mux.HandleFunc("GET /api/characters", api.Characters)
	mux.Handle("POST /api/generate", throttle(opts.Generate, http.HandlerFunc(api.Generate)))

	mux.Handle("POST /api/auth/signup", throttle(opts.Login, http.HandlerFunc(api.Signup)))
	mux.Handle("POST /api/auth/login", throttle(opts.Login, http.HandlerFunc(api.Login)))
	mux.HandleFunc("POST /api/auth/logout", api.Logout)
	mux.HandleFunc("GET /api/auth/me", api.Me)
	mux.HandleFunc("PATCH /api/auth/profile", api.UpdateProfile)

	mux.HandleFunc("GET /api/leaderboard", api.Leaderboard)
	if ws != nil {
		mux.HandleFunc("GET /ws/leaderboard", ws.ServeWS)
	}

	if opts.PostedDir != "" {
		mux.Handle("GET /posted/", http.StripPrefix("/posted/", http.FileServer(http.Dir(opts.PostedDir))))
	}
	if opts.PublicDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.PublicDir)))
	}
	return logRequests(mux)
}

func throttle(l *limiter.Limiter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return stdlib.NewMiddleware(l).Handler(next)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
