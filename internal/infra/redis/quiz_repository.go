package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"explainit-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (quiz files, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error)
}

// QuizRepository caches quiz documents in Redis and falls back to a loader on cache miss.
// Documents are stored as JSON: SET quiz:{videoID} {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, videoID string) (domain.QuizDocument, error) {
	if quiz, ok := r.cached(ctx, videoID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(videoID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, videoID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, videoID)
		if err != nil {
			return domain.QuizDocument{}, err
		}

		if raw, err := json.Marshal(quiz); err == nil {
			// best-effort; a failed write only costs another load
			_ = r.client.Set(ctx, r.key(videoID), raw, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDocument{}, err
	}
	return result.(domain.QuizDocument), nil
}

// Invalidate drops a cached quiz, e.g. after a regeneration rewrote it.
func (r *QuizRepository) Invalidate(ctx context.Context, videoID string) error {
	return r.client.Del(ctx, r.key(videoID)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, videoID string) (domain.QuizDocument, bool) {
	raw, err := r.client.Get(ctx, r.key(videoID)).Bytes()
	if err != nil {
		return domain.QuizDocument{}, false
	}
	var quiz domain.QuizDocument
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.QuizDocument{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(videoID string) string {
	return "quiz:" + videoID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
