package state

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"explainit-service/internal/domain"
	"explainit-service/internal/pubsub"
	"golang.org/x/sync/errgroup"
)

const (
	// TickInterval and TickStep drive placeholder videos: 1% every 100ms,
	// a nominal 10 seconds per video.
	TickInterval = 100 * time.Millisecond
	TickStep     = 1.0

	quizLookupLimit = 4
)

// MediaHandle controls one video element. Handles must not call back into
// the session synchronously.
type MediaHandle interface {
	Play() error
	Pause()
}

// QuizSource fetches quizzes by normalized video id.
type QuizSource interface {
	FetchQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error)
}

// ScoreReporter receives finished quiz results.
type ScoreReporter interface {
	ReportQuizResult(ctx context.Context, videoID string, score, total int) error
}

// FeedState is a snapshot of the feed controller.
type FeedState struct {
	CurrentIndex    int
	CurrentID       string
	IsPlaying       bool
	Progress        float64
	QuizOpen        bool
	QuizVideoID     string
	CommentsOpen    bool
	CommentsVideoID string
	QuizAvailable   map[string]bool
}

// FeedSession keeps exactly one video active in the scrolling feed and
// coordinates the quiz modal and the comments sheet with playback.
type FeedSession struct {
	videos   *VideoStore
	quizzes  QuizSource
	auth     *AuthStore
	reporter ScoreReporter
	quiz     *QuizFlow
	after    AfterFunc

	mu              sync.Mutex
	currentIndex    int
	isPlaying       bool
	progress        float64
	quizVideoID     string
	commentsVideoID string
	playingID       string
	media           map[string]MediaHandle
	flags           map[string]bool
	attempted       map[string]struct{}
	timer           Stopper
	timerGen        uint64
	hub             *pubsub.Hub[FeedState]
}

// FeedOption customizes a FeedSession.
type FeedOption func(*FeedSession)

// WithAuth lets the session author comments as the logged-in user.
func WithAuth(auth *AuthStore) FeedOption {
	return func(s *FeedSession) { s.auth = auth }
}

// WithScoreReporter receives quiz results on completion.
func WithScoreReporter(r ScoreReporter) FeedOption {
	return func(s *FeedSession) { s.reporter = r }
}

// WithTimer replaces time.AfterFunc for the progress ticker and the quiz
// completion delay.
func WithTimer(after AfterFunc) FeedOption {
	return func(s *FeedSession) { s.after = after }
}

func NewFeedSession(videos *VideoStore, quizzes QuizSource, opts ...FeedOption) *FeedSession {
	s := &FeedSession{
		videos:    videos,
		quizzes:   quizzes,
		after:     realAfter,
		isPlaying: true,
		media:     make(map[string]MediaHandle),
		flags:     make(map[string]bool),
		attempted: make(map[string]struct{}),
		hub:       pubsub.NewHub[FeedState](4),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.quiz = NewQuizFlowWithTimer(s.after)
	return s
}

// Quiz exposes the modal so a view can select, submit and advance.
func (s *FeedSession) Quiz() *QuizFlow {
	return s.quiz
}

// RegisterMedia binds a media handle to a video id.
func (s *FeedSession) RegisterMedia(id string, h MediaHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[id] = h
}

func (s *FeedSession) UnregisterMedia(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.media, id)
	if s.playingID == id {
		s.playingID = ""
	}
}

// Start begins playback of the current video.
func (s *FeedSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isPlaying {
		if v, ok := s.currentLocked(); ok {
			s.playLocked(v.ID)
		}
	}
	s.restartTimerLocked()
	s.publishLocked()
}

// Stop halts the ticker and pauses the active media.
func (s *FeedSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.pauseActiveLocked()
}

// OnScroll snaps to round(offset/viewport). Out-of-range or unchanged
// indexes are ignored.
func (s *FeedSession) OnScroll(offset, viewport float64) {
	if viewport <= 0 {
		return
	}
	idx := int(math.Round(offset / viewport))
	videos := s.videos.Videos()

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(videos) || idx == s.currentIndex {
		return
	}
	s.pauseActiveLocked()
	s.currentIndex = idx
	s.progress = 0
	s.isPlaying = true
	s.playLocked(videos[idx].ID)
	s.restartTimerLocked()
	s.publishLocked()
}

// OnTimeUpdate reports native playback position for video id.
func (s *FeedSession) OnTimeUpdate(id string, position, duration float64) {
	if duration <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.currentLocked()
	if !ok || v.ID != id {
		return
	}
	s.progress = math.Min(100, math.Max(0, position/duration*100))
	if s.progress >= 100 {
		s.finishLocked()
	}
	s.publishLocked()
}

// OnMediaEnded marks the current video finished; the feed does not advance.
func (s *FeedSession) OnMediaEnded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.currentLocked()
	if !ok || v.ID != id {
		return
	}
	s.progress = 100
	s.finishLocked()
	s.publishLocked()
}

// TogglePlay inverts playback. Playing a finished video replays it.
func (s *FeedSession) TogglePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.currentLocked()
	if !ok {
		return
	}
	s.isPlaying = !s.isPlaying
	if s.isPlaying {
		if s.progress >= 100 {
			s.progress = 0
		}
		s.playLocked(v.ID)
	} else {
		s.pauseActiveLocked()
	}
	s.restartTimerLocked()
	s.publishLocked()
}

// DetectQuizzes sets the quiz-available flag of every loaded video. Each id
// is looked up at most once, ever; failures count as unavailable.
func (s *FeedSession) DetectQuizzes(ctx context.Context) {
	var pending []domain.VideoCard

	s.mu.Lock()
	for _, v := range s.videos.Videos() {
		if v.HasQuiz() {
			s.flags[v.ID] = true
			continue
		}
		if !v.HasMedia() || v.QuizKey() == "" {
			continue
		}
		if _, done := s.attempted[v.ID]; done {
			continue
		}
		s.attempted[v.ID] = struct{}{}
		pending = append(pending, v)
	}
	s.publishLocked()
	s.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(quizLookupLimit)
	for _, v := range pending {
		g.Go(func() error {
			doc, err := s.quizzes.FetchQuiz(ctx, v.QuizKey())
			available := false
			if err == nil {
				questions, _ := doc.ToQuestions()
				available = len(questions) > 0
			}
			s.mu.Lock()
			s.flags[v.ID] = available
			s.publishLocked()
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// HasQuiz is the display-only availability flag.
func (s *FeedSession) HasQuiz(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[id]
}

// OpenQuiz opens the modal for video id, fetching questions when none are
// embedded. Any failure leaves the modal closed.
func (s *FeedSession) OpenQuiz(ctx context.Context, id string) bool {
	v, ok := s.videos.Get(id)
	if !ok {
		return false
	}
	questions := v.Quiz
	if len(questions) == 0 {
		doc, err := s.quizzes.FetchQuiz(ctx, v.QuizKey())
		if err != nil {
			return false
		}
		var dropped int
		questions, dropped = doc.ToQuestions()
		if dropped > 0 {
			log.Printf("quiz %s: dropped %d malformed questions", v.QuizKey(), dropped)
		}
		if len(questions) == 0 {
			return false
		}
		s.videos.AttachQuiz(id, questions)
	}

	if !s.quiz.Start(questions, func(score, total int) { s.onQuizComplete(id, score, total) }) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[id] = true
	s.quizVideoID = id
	s.restartTimerLocked()
	s.publishLocked()
	return true
}

// CloseQuiz is the backdrop tap; refused once the quiz is complete.
func (s *FeedSession) CloseQuiz() bool {
	if !s.quiz.Close() {
		return false
	}
	s.closeQuizModal()
	return true
}

// DismissQuiz closes the results screen, firing the completion callback
// if it is still pending.
func (s *FeedSession) DismissQuiz() {
	s.quiz.Dismiss()
	s.closeQuizModal()
}

func (s *FeedSession) onQuizComplete(id string, score, total int) {
	points := domain.QuizPoints(score, total)
	log.Printf("quiz %s completed: %d/%d (%d points)", id, score, total, points)
	if s.reporter != nil {
		if err := s.reporter.ReportQuizResult(context.Background(), id, score, total); err != nil {
			log.Printf("report quiz result: %v", err)
		}
	}
	s.quiz.Dismiss()
	s.closeQuizModal()
}

func (s *FeedSession) closeQuizModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quizVideoID == "" {
		return
	}
	s.quizVideoID = ""
	s.restartTimerLocked()
	s.publishLocked()
}

// OpenComments focuses the comments sheet on video id. Playback continues.
func (s *FeedSession) OpenComments(id string) bool {
	if _, ok := s.videos.Get(id); !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentsVideoID = id
	s.restartTimerLocked()
	s.publishLocked()
	return true
}

func (s *FeedSession) CloseComments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentsVideoID = ""
	s.restartTimerLocked()
	s.publishLocked()
}

// AddComment posts text on the video whose comments are open, authored by
// the logged-in user.
func (s *FeedSession) AddComment(text string) (domain.Comment, error) {
	if s.auth == nil {
		return domain.Comment{}, domain.ErrNotAuthenticated
	}
	user, ok := s.auth.User()
	if !ok {
		return domain.Comment{}, domain.ErrNotAuthenticated
	}
	s.mu.Lock()
	id := s.commentsVideoID
	s.mu.Unlock()
	if id == "" {
		return domain.Comment{}, domain.ErrVideoNotFound
	}
	return s.videos.AddComment(id, text, user.Author())
}

func (s *FeedSession) State() FeedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe streams snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *FeedSession) Subscribe() (<-chan FeedState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub.Subscribe(s.stateLocked())
}

func (s *FeedSession) stateLocked() FeedState {
	st := FeedState{
		CurrentIndex:    s.currentIndex,
		IsPlaying:       s.isPlaying,
		Progress:        s.progress,
		QuizOpen:        s.quizVideoID != "",
		QuizVideoID:     s.quizVideoID,
		CommentsOpen:    s.commentsVideoID != "",
		CommentsVideoID: s.commentsVideoID,
		QuizAvailable:   make(map[string]bool, len(s.flags)),
	}
	if v, ok := s.currentLocked(); ok {
		st.CurrentID = v.ID
	}
	for id, ok := range s.flags {
		st.QuizAvailable[id] = ok
	}
	return st
}

func (s *FeedSession) publishLocked() {
	if s.hub.Len() > 0 {
		s.hub.Publish(s.stateLocked())
	}
}

func (s *FeedSession) currentLocked() (domain.VideoCard, bool) {
	videos := s.videos.Videos()
	if s.currentIndex < 0 || s.currentIndex >= len(videos) {
		return domain.VideoCard{}, false
	}
	return videos[s.currentIndex], true
}

// playLocked starts id's media, first pausing whatever else was playing.
// Start errors (autoplay refusal) are ignored.
func (s *FeedSession) playLocked(id string) {
	if s.playingID != "" && s.playingID != id {
		s.pauseActiveLocked()
	}
	h, ok := s.media[id]
	if !ok {
		return
	}
	_ = h.Play()
	s.playingID = id
}

func (s *FeedSession) pauseActiveLocked() {
	if s.playingID == "" {
		return
	}
	if h, ok := s.media[s.playingID]; ok {
		h.Pause()
	}
	s.playingID = ""
}

func (s *FeedSession) finishLocked() {
	s.isPlaying = false
	s.pauseActiveLocked()
	s.stopTimerLocked()
}

// restartTimerLocked keeps at most one synthetic ticker alive. It only runs
// for placeholder videos that are playing with no overlay open.
func (s *FeedSession) restartTimerLocked() {
	s.stopTimerLocked()
	v, ok := s.currentLocked()
	if !ok || v.HasMedia() || !s.isPlaying || s.progress >= 100 {
		return
	}
	if s.quizVideoID != "" || s.commentsVideoID != "" {
		return
	}
	s.armLocked(s.timerGen)
}

func (s *FeedSession) stopTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *FeedSession) armLocked(gen uint64) {
	s.timer = s.after(TickInterval, func() { s.tick(gen) })
}

func (s *FeedSession) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return
	}
	s.progress = math.Min(100, s.progress+TickStep)
	if s.progress >= 100 {
		s.finishLocked()
	} else {
		s.armLocked(gen)
	}
	s.publishLocked()
}

// ResultGateway submits quiz results for a logged-in user.
type ResultGateway interface {
	SubmitQuizResult(ctx context.Context, token, videoID string, score, total int) (int, error)
}

// SessionReporter reports results as the AuthStore's current user. Results
// finished while logged out are dropped.
type SessionReporter struct {
	Gateway ResultGateway
	Auth    *AuthStore
}

func (r SessionReporter) ReportQuizResult(ctx context.Context, videoID string, score, total int) error {
	token := r.Auth.Token()
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	points, err := r.Gateway.SubmitQuizResult(ctx, token, videoID, score, total)
	if err != nil {
		return err
	}
	log.Printf("earned %d points on %s", points, videoID)
	return nil
}
