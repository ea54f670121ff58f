package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"explainit-service/internal/domain"
)

// PointsStore keeps leaderboard totals in memory, one table per period bucket.
type PointsStore struct {
	mu      sync.RWMutex
	users   map[string]domain.LeaderboardUser
	buckets map[string]map[string]*tally
}

type tally struct {
	points  int
	watched int
}

func NewPointsStore() *PointsStore {
	return &PointsStore{
		users:   make(map[string]domain.LeaderboardUser),
		buckets: make(map[string]map[string]*tally),
	}
}

func (s *PointsStore) AddPoints(_ context.Context, user domain.LeaderboardUser, points int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	for _, period := range domain.Periods {
		bucket := period.Bucket(at)
		table, ok := s.buckets[bucket]
		if !ok {
			table = make(map[string]*tally)
			s.buckets[bucket] = table
		}
		t, ok := table[user.ID]
		if !ok {
			t = &tally{}
			table[user.ID] = t
		}
		t.points += points
		t.watched++
	}
	return nil
}

func (s *PointsStore) Top(_ context.Context, period domain.Period, at time.Time) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table := s.buckets[period.Bucket(at)]
	entries := make([]domain.LeaderboardEntry, 0, len(table))
	for id, t := range table {
		entries = append(entries, domain.LeaderboardEntry{
			User:          s.users[id],
			Points:        t.points,
			VideosWatched: t.watched,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].User.DisplayName < entries[j].User.DisplayName
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
