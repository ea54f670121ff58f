package domain

import (
	"fmt"
	"time"
)

// Scope narrows a leaderboard to a group of users.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeCommunity Scope = "community"
	ScopeFriends   Scope = "friends"
)

// Period selects the window points are summed over.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodAllTime Period = "allTime"
)

// ParseScope falls back to global for unknown values.
func ParseScope(raw string) Scope {
	switch Scope(raw) {
	case ScopeCommunity, ScopeFriends:
		return Scope(raw)
	}
	return ScopeGlobal
}

// ParsePeriod falls back to weekly, the default tab.
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodDaily, PeriodAllTime:
		return Period(raw)
	}
	return PeriodWeekly
}

// Bucket names the storage bucket for the period containing t.
func (p Period) Bucket(t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodDaily:
		return "daily:" + t.Format("2006-01-02")
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("weekly:%d-W%02d", year, week)
	}
	return "alltime"
}

// Periods lists every period points are recorded into.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodAllTime}

// LeaderboardUser is the public identity on a leaderboard row.
type LeaderboardUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// LeaderboardUserFromProfile builds the row identity for a profile.
func LeaderboardUserFromProfile(p Profile) LeaderboardUser {
	return LeaderboardUser{
		ID:          p.ID,
		Username:    p.Handle(),
		DisplayName: p.DisplayName(),
		Avatar:      p.AvatarOrDefault(),
	}
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	User          LeaderboardUser `json:"user"`
	Points        int             `json:"points"`
	VideosWatched int             `json:"videosWatched"`
	IsFriend      bool            `json:"isFriend,omitempty"`
	IsCurrentUser bool            `json:"isCurrentUser,omitempty"`
}

// Leaderboard is a snapshot pushed to live subscribers.
type Leaderboard struct {
	Period    Period             `json:"period"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
