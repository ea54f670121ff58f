package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"explainit-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PointsStore keeps leaderboards in sorted sets, one per period bucket.
//
//	leaderboard:{bucket}         ZSET userID -> points
//	leaderboard:{bucket}:watched HASH userID -> videos watched
//	leaderboard:user:{userID}    HASH username/displayName/avatar
type PointsStore struct {
	client *redis.Client
}

func NewPointsStore(client *redis.Client) *PointsStore {
	return &PointsStore{client: client}
}

// bucketTTL keeps rolling buckets a little past their window; all-time never expires.
func bucketTTL(period domain.Period) time.Duration {
	switch period {
	case domain.PeriodDaily:
		return 48 * time.Hour
	case domain.PeriodWeekly:
		return 15 * 24 * time.Hour
	}
	return 0
}

func (s *PointsStore) AddPoints(ctx context.Context, user domain.LeaderboardUser, points int, at time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.userKey(user.ID),
		"username", user.Username,
		"displayName", user.DisplayName,
		"avatar", user.Avatar,
	)
	for _, period := range domain.Periods {
		key := s.boardKey(period.Bucket(at))
		pipe.ZIncrBy(ctx, key, float64(points), user.ID)
		pipe.HIncrBy(ctx, key+":watched", user.ID, 1)
		if ttl := bucketTTL(period); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
			pipe.Expire(ctx, key+":watched", ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return nil
}

func (s *PointsStore) Top(ctx context.Context, period domain.Period, at time.Time) ([]domain.LeaderboardEntry, error) {
	key := s.boardKey(period.Bucket(at))
	scores, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(scores) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	watched, err := s.client.HGetAll(ctx, key+":watched").Result()
	if err != nil {
		return nil, fmt.Errorf("read watched: %w", err)
	}

	pipe := s.client.Pipeline()
	users := make([]*redis.MapStringStringCmd, len(scores))
	for i, z := range scores {
		users[i] = pipe.HGetAll(ctx, s.userKey(fmt.Sprint(z.Member)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for i, z := range scores {
		id := fmt.Sprint(z.Member)
		fields := users[i].Val()
		count, _ := strconv.Atoi(watched[id])
		entries = append(entries, domain.LeaderboardEntry{
			User: domain.LeaderboardUser{
				ID:          id,
				Username:    fields["username"],
				DisplayName: fields["displayName"],
				Avatar:      fields["avatar"],
			},
			Points:        int(z.Score),
			VideosWatched: count,
		})
	}
	// ZREVRANGE breaks ties by member; rank ties by name like the in-memory store.
	sort.SliceStable(entries, func(i, j int) bool {
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

func (s *PointsStore) boardKey(bucket string) string {
	return "leaderboard:" + bucket
}

func (s *PointsStore) userKey(userID string) string {
	return "leaderboard:user:" + userID
}
