package state

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"explainit-service/internal/domain"
	"explainit-service/internal/pubsub"
	"github.com/google/uuid"
)

// VideoSource lists posted media filenames.
type VideoSource interface {
	ListVideos(ctx context.Context) ([]string, error)
}

// VideoStore owns the feed's video list. Reads return copies, so callers
// can hold on to them while the store keeps changing.
type VideoStore struct {
	mu        sync.RWMutex
	videos    []domain.VideoCard
	source    VideoSource
	urlPrefix string
	now       func() time.Time
	hub       *pubsub.Hub[[]domain.VideoCard]
}

// NewVideoStore starts from initial (typically SampleVideos) until the first
// successful Refresh.
func NewVideoStore(source VideoSource, urlPrefix string, initial []domain.VideoCard) *VideoStore {
	if urlPrefix == "" {
		urlPrefix = "/posted"
	}
	return &VideoStore{
		videos:    cloneCards(initial),
		source:    source,
		urlPrefix: urlPrefix,
		now:       time.Now,
		hub:       pubsub.NewHub[[]domain.VideoCard](4),
	}
}

func (s *VideoStore) Videos() []domain.VideoCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCards(s.videos)
}

// Saved returns the saved videos in feed order.
func (s *VideoStore) Saved() []domain.VideoCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var saved []domain.VideoCard
	for _, v := range s.videos {
		if v.IsSaved {
			saved = append(saved, cloneCard(v))
		}
	}
	return saved
}

func (s *VideoStore) Get(id string) (domain.VideoCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return cloneCard(s.videos[i]), true
	}
	return domain.VideoCard{}, false
}

// AddVideo puts v at the top of the feed.
func (s *VideoStore) AddVideo(v domain.VideoCard) {
	s.mu.Lock()
	s.videos = append([]domain.VideoCard{cloneCard(v)}, s.videos...)
	s.publishLocked()
	s.mu.Unlock()
}

// ToggleLike flips isLiked and moves likes by one. It reports whether the
// video exists.
func (s *VideoStore) ToggleLike(id string) bool {
	return s.update(id, func(v *domain.VideoCard) {
		if v.IsLiked {
			v.Likes--
		} else {
			v.Likes++
		}
		v.IsLiked = !v.IsLiked
	})
}

func (s *VideoStore) ToggleSave(id string) bool {
	return s.update(id, func(v *domain.VideoCard) {
		v.IsSaved = !v.IsSaved
	})
}

// AddComment prepends a new comment by author.
func (s *VideoStore) AddComment(id, text string, author domain.Author) (domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Comment{}, domain.ErrEmptyComment
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		User:      author,
		Text:      text,
		Timestamp: domain.DefaultCommentStamp,
		CreatedAt: s.now(),
	}
	ok := s.update(id, func(v *domain.VideoCard) {
		v.Comments = append([]domain.Comment{comment}, v.Comments...)
	})
	if !ok {
		return domain.Comment{}, domain.ErrVideoNotFound
	}
	return comment, nil
}

// AttachQuiz stores fetched questions on the video so later opens skip the fetch.
func (s *VideoStore) AttachQuiz(id string, questions []domain.QuizQuestion) bool {
	return s.update(id, func(v *domain.VideoCard) {
		v.Quiz = append([]domain.QuizQuestion(nil), questions...)
	})
}

// Refresh replaces the list with the backend listing. On failure the current
// list is kept and the error returned.
func (s *VideoStore) Refresh(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	files, err := s.source.ListVideos(ctx)
	if err != nil {
		log.Printf("refresh videos: %v", err)
		return err
	}
	videos := make([]domain.VideoCard, 0, len(files))
	for _, f := range files {
		videos = append(videos, domain.VideoCardFromFilename(f, s.urlPrefix))
	}

	s.mu.Lock()
	s.videos = videos
	s.publishLocked()
	s.mu.Unlock()
	log.Printf("loaded %d videos", len(videos))
	return nil
}

// Subscribe streams list snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *VideoStore) Subscribe() (<-chan []domain.VideoCard, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub.Subscribe(cloneCards(s.videos))
}

func (s *VideoStore) update(id string, fn func(v *domain.VideoCard)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	fn(&s.videos[i])
	s.publishLocked()
	return true
}

func (s *VideoStore) indexOf(id string) int {
	for i := range s.videos {
		if s.videos[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *VideoStore) publishLocked() {
	if s.hub.Len() > 0 {
		s.hub.Publish(cloneCards(s.videos))
	}
}

func cloneCards(in []domain.VideoCard) []domain.VideoCard {
	out := make([]domain.VideoCard, len(in))
	for i, v := range in {
		out[i] = cloneCard(v)
	}
	return out
}

func cloneCard(v domain.VideoCard) domain.VideoCard {
	if v.Quiz != nil {
		v.Quiz = append([]domain.QuizQuestion(nil), v.Quiz...)
	}
	if v.Comments != nil {
		v.Comments = append([]domain.Comment(nil), v.Comments...)
	}
	if v.ShowTheme != nil {
		theme := *v.ShowTheme
		v.ShowTheme = &theme
	}
	return v
}
