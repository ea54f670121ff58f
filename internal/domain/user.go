package domain

import (
	"strings"
	"time"
)

// Profile is the public view of an account, shared by every consumer.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Username  string   `json:"username,omitempty"`
	Age       int      `json:"age,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	Friends   []string `json:"friends,omitempty"`
}

// Handle is the name shown next to comments and on the leaderboard.
func (p Profile) Handle() string {
	if p.Username != "" {
		return p.Username
	}
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// DisplayName prefers the username, then the full name.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Name
}

// AvatarOrDefault returns the avatar or the generic placeholder.
func (p Profile) AvatarOrDefault() string {
	if p.Avatar != "" {
		return p.Avatar
	}
	return DefaultAvatar
}

// Author converts the profile into a comment author.
func (p Profile) Author() Author {
	return Author{Username: p.Handle(), Avatar: p.AvatarOrDefault()}
}

// IsFriend reports whether userID is in the friend list.
func (p Profile) IsFriend(userID string) bool {
	for _, f := range p.Friends {
		if f == userID {
			return true
		}
	}
	return false
}

// Account is the stored credential record. The hash never leaves the server.
type Account struct {
	Profile
	PasswordHash string
	CreatedAt    time.Time
}

// ProfileUpdate carries a partial profile change; nil fields are untouched.
type ProfileUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Username  *string  `json:"username,omitempty"`
	Age       *int     `json:"age,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Avatar    *string  `json:"avatar,omitempty"`
	Friends   []string `json:"friends,omitempty"`
}

// Apply returns p with the update merged in.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Interests != nil {
		p.Interests = append([]string(nil), u.Interests...)
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Friends != nil {
		p.Friends = append([]string(nil), u.Friends...)
	}
	return p
}

// Session is an authenticated login. Only the token and profile are kept
// client-side.
type Session struct {
	Token     string    `json:"token"`
	Profile   Profile   `json:"profile"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NormalizeEmail is the account key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
