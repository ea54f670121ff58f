package app

import (
	"context"
	"sort"
	"time"

	"explainit-service/internal/domain"
	"explainit-service/internal/pubsub"
)

// PointsStore keeps per-period point totals.
type PointsStore interface {
	// AddPoints credits points and one watched video to user in every period bucket containing at.
	AddPoints(ctx context.Context, user domain.LeaderboardUser, points int, at time.Time) error
	// Top returns the period's entries ranked by points, rank starting at 1.
	Top(ctx context.Context, period domain.Period, at time.Time) ([]domain.LeaderboardEntry, error)
}

// LeaderboardQuery selects and personalizes a board.
type LeaderboardQuery struct {
	Period domain.Period
	Scope  domain.Scope
	Viewer *domain.Profile
}

// LeaderboardService awards quiz points and serves ranked boards.
type LeaderboardService struct {
	store PointsStore
	now   func() time.Time
	hubs  map[domain.Period]*pubsub.Hub[domain.Leaderboard]
}

func NewLeaderboardService(store PointsStore) *LeaderboardService {
	return NewLeaderboardServiceWithClock(store, time.Now)
}

// NewLeaderboardServiceWithClock is test-only for deterministic buckets.
func NewLeaderboardServiceWithClock(store PointsStore, now func() time.Time) *LeaderboardService {
	hubs := make(map[domain.Period]*pubsub.Hub[domain.Leaderboard], len(domain.Periods))
	for _, p := range domain.Periods {
		hubs[p] = pubsub.NewHub[domain.Leaderboard](8)
	}
	return &LeaderboardService{store: store, now: now, hubs: hubs}
}

// RecordQuizResult converts a finished quiz into points for the player and
// pushes fresh boards to subscribers.
func (s *LeaderboardService) RecordQuizResult(ctx context.Context, player domain.Profile, score, total int) (int, error) {
	if total <= 0 || score < 0 || score > total {
		return 0, domain.ErrInvalidQuizResult
	}
	points := domain.QuizPoints(score, total)
	now := s.now()
	if err := s.store.AddPoints(ctx, domain.LeaderboardUserFromProfile(player), points, now); err != nil {
		return 0, err
	}
	s.publish(ctx, now)
	return points, nil
}

// Board returns the filtered board sorted by points. Ranks keep their
// global values so a filtered view still shows each user's real position.
func (s *LeaderboardService) Board(ctx context.Context, q LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.Top(ctx, q.Period, s.now())
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if q.Viewer != nil {
			entry.IsCurrentUser = entry.User.ID == q.Viewer.ID
			entry.IsFriend = q.Viewer.IsFriend(entry.User.ID)
			if entry.IsCurrentUser {
				entry.User.DisplayName = q.Viewer.DisplayName()
				entry.User.Username = q.Viewer.Handle()
			}
		}
		if !inScope(entry, q.Scope) {
			continue
		}
		filtered = append(filtered, entry)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Points > filtered[j].Points
	})
	return filtered, nil
}

// Subscribe returns a channel of global boards for period.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, period domain.Period) (<-chan domain.Leaderboard, func(), error) {
	hub, ok := s.hubs[period]
	if !ok {
		hub = s.hubs[domain.PeriodWeekly]
		period = domain.PeriodWeekly
	}
	initial, err := s.snapshot(ctx, period)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := hub.Subscribe(initial)
	return ch, cancel, nil
}

func (s *LeaderboardService) publish(ctx context.Context, at time.Time) {
	for period, hub := range s.hubs {
		if hub.Len() == 0 {
			continue
		}
		lb, err := s.snapshot(ctx, period)
		if err != nil {
			continue
		}
		lb.UpdatedAt = at
		hub.Publish(lb)
	}
}

func (s *LeaderboardService) snapshot(ctx context.Context, period domain.Period) (domain.Leaderboard, error) {
	entries, err := s.Board(ctx, LeaderboardQuery{Period: period, Scope: domain.ScopeGlobal})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Period: period, Entries: entries, UpdatedAt: s.now()}, nil
}

func inScope(entry domain.LeaderboardEntry, scope domain.Scope) bool {
	switch scope {
	case domain.ScopeFriends:
		return entry.IsFriend || entry.IsCurrentUser
	case domain.ScopeCommunity:
		// community membership is not modelled yet; odd ranks stand in for it
		return entry.Rank%2 != 0 || entry.IsCurrentUser
	}
	return true
}
