package domain

import "time"

// APIToken authenticates machine callers such as the exchange rate provider.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userID"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"` // Never expose the hash in JSON responses
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsExpired checks if the token has expired
func (t *APIToken) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(time.Now())
}
