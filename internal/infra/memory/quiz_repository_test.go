package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"explainit-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.QuizDocument{
			"001": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "001"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "001"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuiz(context.Background(), "404"); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected a load per miss, got %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.QuizDocument{"001": sampleQuiz()}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "001")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "001")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", loader.calls)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, videoID)
}

func sampleQuiz() domain.QuizDocument {
	correct := 1
	return domain.QuizDocument{
		Questions: []domain.QuizDocumentQuestion{
			{
				Question:     "What is 2 + 2?",
				Choices:      []string{"3", "4"},
				CorrectIndex: &correct,
			},
		},
	}
}

func TestChainQuizLoaderFallsThroughMisses(t *testing.T) {
	primary := NewStaticQuizLoader(map[string]domain.QuizDocument{})
	secondary := NewStaticQuizLoader(map[string]domain.QuizDocument{"002": sampleQuiz()})
	chain := ChainQuizLoader{primary, secondary}

	quiz, err := chain.LoadQuiz(context.Background(), "002")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(quiz.Questions) != 1 {
		t.Fatalf("expected secondary quiz, got %+v", quiz)
	}
	if _, err := chain.LoadQuiz(context.Background(), "003"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChainQuizLoaderStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("db down")
	chain := ChainQuizLoader{failingLoader{err: boom}, NewStaticQuizLoader(map[string]domain.QuizDocument{"002": sampleQuiz()})}
	if _, err := chain.LoadQuiz(context.Background(), "002"); !errors.Is(err, boom) {
		t.Fatalf("expected db error, got %v", err)
	}
}

type failingLoader struct{ err error }

func (l failingLoader) LoadQuiz(context.Context, string) (domain.QuizDocument, error) {
	return domain.QuizDocument{}, l.err
}
