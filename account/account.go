package account

import "time"

// Identity is the public profile of a logged in user, as returned by
// the users API.
type Identity struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email,omitempty"`
	Username      string     `json:"username,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	AboutMe       string     `json:"about_me,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	HideEmail     bool       `json:"hide_email,omitempty"`
	Balance       float64    `json:"balance"`
	LastLanternAt *time.Time `json:"last_lantern_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Session pairs a bearer token with the identity it authenticates.
// Sessions are owned exclusively by Store.
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"user"`
}

// record is the single durable document holding all sessions.
// Sessions are ordered most recently activated first.
type record struct {
	ActiveID int64     `json:"active_id,omitempty"`
	Sessions []Session `json:"accounts"`
}
