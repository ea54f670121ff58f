package domain

import "errors"

var (
	// ErrVideoNotFound is returned when a video id is not in the feed.
	ErrVideoNotFound = errors.New("video not found")
	// ErrQuizNotFound indicates no quiz exists for a video.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyComment is returned for blank comment text.
	ErrEmptyComment = errors.New("comment text is empty")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidAccount is returned for signups missing an email or password.
	ErrInvalidAccount = errors.New("email and password are required")
	// ErrEmailTaken is returned when signing up with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountNotFound is returned by account repositories on a miss.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSessionNotFound is returned for unknown or expired session tokens.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotAuthenticated is returned by client stores when no session is active.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidQuizResult is returned for scores outside [0, total].
	ErrInvalidQuizResult = errors.New("invalid quiz result")

	// ErrInvalidGeneration is returned for malformed generation requests.
	ErrInvalidGeneration = errors.New("invalid generation request")
	// ErrGeneratorBusy is returned when every generation slot is taken.
	ErrGeneratorBusy = errors.New("generator busy")
)
