package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"explainit-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (quiz files, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error)
}

// QuizRepository caches quizzes with TTL to avoid re-reading the backing store.
// Misses are not cached so a quiz written after a lookup shows up on the next one.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.QuizDocument
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	if quiz, ok := r.cached(videoID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		if quiz, ok := r.cached(videoID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, videoID)
		if err != nil {
			return domain.QuizDocument{}, err
		}

		r.mu.Lock()
		r.cache[videoID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDocument{}, err
	}
	return result.(domain.QuizDocument), nil
}

func (r *QuizRepository) cached(videoID string) (domain.QuizDocument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[videoID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuizDocument{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.QuizDocument
}

func NewStaticQuizLoader(quizzes map[string]domain.QuizDocument) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, videoID string) (domain.QuizDocument, error) {
	if quiz, ok := l.quizzes[videoID]; ok {
		return quiz, nil
	}
	return domain.QuizDocument{}, domain.ErrQuizNotFound
}

// ChainQuizLoader tries each loader in order, moving on only when a loader
// reports ErrQuizNotFound.
type ChainQuizLoader []QuizLoader

func (c ChainQuizLoader) LoadQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	for _, loader := range c {
		quiz, err := loader.LoadQuiz(ctx, videoID)
		if errors.Is(err, domain.ErrQuizNotFound) {
			continue
		}
		return quiz, err
	}
	return domain.QuizDocument{}, domain.ErrQuizNotFound
}
