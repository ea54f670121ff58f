package state

import (
	"context"
	"sync"
	"time"

	"explainit-service/internal/domain"
)

// fakeClock collects scheduled callbacks and runs them on demand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) After(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns the timers that have neither fired nor been stopped.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext runs the oldest pending timer and reports whether there was one.
func (c *fakeClock) fireNext() bool {
	c.mu.Lock()
	var next *fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	c.mu.Unlock()
	if next == nil {
		return false
	}
	next.f()
	return true
}

type fakeSource struct {
	mu    sync.Mutex
	files []string
	err   error
	calls int
}

func (s *fakeSource) ListVideos(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]string(nil), s.files...), nil
}

type fakeQuizzes struct {
	mu      sync.Mutex
	quizzes map[string]domain.QuizDocument
	lookups map[string]int
}

func newFakeQuizzes(quizzes map[string]domain.QuizDocument) *fakeQuizzes {
	return &fakeQuizzes{quizzes: quizzes, lookups: make(map[string]int)}
}

func (q *fakeQuizzes) FetchQuiz(_ context.Context, videoID string) (domain.QuizDocument, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lookups[videoID]++
	doc, ok := q.quizzes[videoID]
	if !ok {
		return domain.QuizDocument{}, domain.ErrQuizNotFound
	}
	return doc, nil
}

func (q *fakeQuizzes) count(videoID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lookups[videoID]
}

type fakeMedia struct {
	mu      sync.Mutex
	playing bool
	plays   int
	playErr error
}

func (m *fakeMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	m.playing = true
	return m.playErr
}

func (m *fakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *fakeMedia) isPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func quizDoc(correct ...int) domain.QuizDocument {
	doc := domain.QuizDocument{}
	for i := range correct {
		idx := correct[i]
		doc.Questions = append(doc.Questions, domain.QuizDocumentQuestion{
			Question:     "Q?",
			Choices:      []string{"a", "b", "c"},
			CorrectIndex: &idx,
		})
	}
	return doc
}
