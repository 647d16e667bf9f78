package domain

import "time"

// Turn is one request/response exchange recorded in a session's history.
type Turn struct {
	UserText  string    `json:"userText"`
	Response  string    `json:"response"`
	Handler   string    `json:"handler"`
	Timestamp time.Time `json:"timestamp"`
}

// Session tracks one user's ongoing conversation.
// Turns is a bounded window: the oldest turn is evicted once the configured
// maximum is exceeded.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	Active     bool      `json:"active"`
	Turns      []Turn    `json:"turns,omitempty"`
}
