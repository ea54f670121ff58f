package state

import (
	"sync"
	"time"

	"explainit-service/internal/domain"
)

// CompletionDelay is how long the results screen shows before the
// completion callback runs.
const CompletionDelay = 2 * time.Second

// QuizPhase is the modal's top-level state.
type QuizPhase int

const (
	QuizIdle QuizPhase = iota
	QuizInProgress
	QuizComplete
)

func (p QuizPhase) String() string {
	switch p {
	case QuizInProgress:
		return "in_progress"
	case QuizComplete:
		return "complete"
	}
	return "idle"
}

// QuizState is a snapshot of the flow. Selected is -1 when nothing is selected.
type QuizState struct {
	Phase    QuizPhase
	Index    int
	Total    int
	Selected int
	Answered bool
	Correct  bool
	Score    int
	Question *domain.QuizQuestion
}

// QuizFlow walks a question list: select, submit, next, then a result
// screen. The completion callback fires exactly once per attempt.
type QuizFlow struct {
	mu         sync.Mutex
	after      AfterFunc
	questions  []domain.QuizQuestion
	phase      QuizPhase
	index      int
	selected   int
	answered   bool
	score      int
	attempt    uint64
	fired      bool
	timer      Stopper
	onComplete func(score, total int)
}

func NewQuizFlow() *QuizFlow {
	return NewQuizFlowWithTimer(realAfter)
}

// NewQuizFlowWithTimer schedules the completion callback with after.
func NewQuizFlowWithTimer(after AfterFunc) *QuizFlow {
	return &QuizFlow{after: after, selected: -1}
}

// Start begins a new attempt. It returns false for an empty question list.
// A finished attempt whose callback is still pending reports first.
func (q *QuizFlow) Start(questions []domain.QuizQuestion, onComplete func(score, total int)) bool {
	if len(questions) == 0 {
		return false
	}
	q.firePending()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetLocked()
	q.questions = append([]domain.QuizQuestion(nil), questions...)
	q.onComplete = onComplete
	q.phase = QuizInProgress
	return true
}

// Select picks an option; ignored once the question is answered.
func (q *QuizFlow) Select(option int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase != QuizInProgress || q.answered {
		return false
	}
	if option < 0 || option >= len(q.questions[q.index].Options) {
		return false
	}
	q.selected = option
	return true
}

// Submit locks in the selection. Without a selection it changes nothing.
func (q *QuizFlow) Submit() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase != QuizInProgress || q.answered || q.selected < 0 {
		return false
	}
	q.answered = true
	if q.questions[q.index].IsCorrect(q.selected) {
		q.score++
	}
	return true
}

// Next moves past an answered question; after the last one the flow
// completes and the callback is scheduled.
func (q *QuizFlow) Next() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase != QuizInProgress || !q.answered {
		return false
	}
	if q.index < len(q.questions)-1 {
		q.index++
		q.selected = -1
		q.answered = false
		return true
	}
	q.phase = QuizComplete
	attempt := q.attempt
	q.timer = q.after(CompletionDelay, func() { q.fire(attempt) })
	return true
}

// Close is the backdrop tap. It is refused once the quiz is complete.
func (q *QuizFlow) Close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase != QuizInProgress {
		return false
	}
	q.resetLocked()
	return true
}

// Dismiss resets the flow for reuse. A pending completion callback fires
// now instead of after the delay.
func (q *QuizFlow) Dismiss() {
	q.firePending()
	q.mu.Lock()
	q.resetLocked()
	q.mu.Unlock()
}

func (q *QuizFlow) State() QuizState {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := QuizState{
		Phase:    q.phase,
		Index:    q.index,
		Total:    len(q.questions),
		Selected: q.selected,
		Answered: q.answered,
		Score:    q.score,
	}
	if q.phase == QuizInProgress {
		question := q.questions[q.index]
		st.Question = &question
		st.Correct = q.answered && question.IsCorrect(q.selected)
	}
	return st
}

func (q *QuizFlow) firePending() {
	q.mu.Lock()
	pending := q.phase == QuizComplete && !q.fired
	attempt := q.attempt
	q.mu.Unlock()

	if pending {
		q.fire(attempt)
	}
}

func (q *QuizFlow) fire(attempt uint64) {
	q.mu.Lock()
	if q.fired || q.attempt != attempt || q.phase != QuizComplete {
		q.mu.Unlock()
		return
	}
	q.fired = true
	if q.timer != nil {
		q.timer.Stop()
	}
	cb, score, total := q.onComplete, q.score, len(q.questions)
	q.mu.Unlock()

	if cb != nil {
		cb(score, total)
	}
}

func (q *QuizFlow) resetLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.attempt++
	q.questions = nil
	q.phase = QuizIdle
	q.index = 0
	q.selected = -1
	q.answered = false
	q.score = 0
	q.fired = false
	q.onComplete = nil
}
