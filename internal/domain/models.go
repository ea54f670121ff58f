package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Default presentation values for cards built from a bare filename.
const (
	DefaultCategory     = "Education"
	DefaultDuration     = "0:00"
	DefaultAvatar       = "👤"
	DefaultCommentStamp = "Just now"
)

// DefaultCharacter is shown on cards that come from the file listing.
var DefaultCharacter = Character{Name: "AI", Avatar: "🤖", Color: "#8B5CF6"}

// Character is the narrator shown on a video card.
type Character struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
}

// ShowTheme groups the characters appearing in a generated video.
type ShowTheme struct {
	Name       string   `json:"name"`
	Avatar     string   `json:"avatar"`
	Color      string   `json:"color"`
	Characters []string `json:"characters"`
}

// CharacterInfo is one entry of the generator's character catalog.
type CharacterInfo struct {
	Image       string `json:"image,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Author identifies who wrote a comment.
type Author struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Comment is immutable once created.
type Comment struct {
	ID        string    `json:"id"`
	User      Author    `json:"user"`
	Text      string    `json:"text"`
	Likes     int       `json:"likes"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoCard is a single entry of the feed.
type VideoCard struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Explanation  string         `json:"explanation"`
	Character    Character      `json:"character"`
	VideoURL     string         `json:"videoUrl,omitempty"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	ShowTheme    *ShowTheme     `json:"showTheme,omitempty"`
	Category     string         `json:"category"`
	Likes        int            `json:"likes"`
	Views        int            `json:"views"`
	Shares       int            `json:"shares"`
	IsLiked      bool           `json:"isLiked"`
	IsSaved      bool           `json:"isSaved"`
	Duration     string         `json:"duration"`
	Quiz         []QuizQuestion `json:"quiz,omitempty"`
	Comments     []Comment      `json:"comments,omitempty"`
}

// HasMedia reports whether the card is backed by a real media file.
func (v VideoCard) HasMedia() bool {
	return v.VideoURL != ""
}

// HasQuiz reports whether questions are embedded in the card.
func (v VideoCard) HasQuiz() bool {
	return len(v.Quiz) > 0
}

// QuizKey is the id used for quiz lookups (the filename without extension).
func (v VideoCard) QuizKey() string {
	return NormalizeVideoID(v.ID)
}

// NormalizeVideoID strips a trailing media extension and surrounding space,
// so "001.mp4" and "001" address the same quiz. Any other dot belongs to the
// id, which keeps the call idempotent.
func NormalizeVideoID(id string) string {
	id = strings.TrimSpace(id)
	if IsVideoFile(id) {
		id = strings.TrimSuffix(id, filepath.Ext(id))
	}
	return strings.TrimSpace(id)
}

// VideoCardFromFilename builds the feed skeleton for a posted media file.
func VideoCardFromFilename(filename, urlPrefix string) VideoCard {
	return VideoCard{
		ID:        filename,
		Title:     strings.TrimSuffix(filename, filepath.Ext(filename)),
		Character: DefaultCharacter,
		VideoURL:  strings.TrimSuffix(urlPrefix, "/") + "/" + filename,
		Category:  DefaultCategory,
		Duration:  DefaultDuration,
	}
}

// IsVideoFile reports whether name has one of the servable video extensions.
func IsVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".webm", ".mov":
		return true
	}
	return false
}
