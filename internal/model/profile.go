package model

import "time"

// Profile is the per-user record provisioned alongside the identity.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	DisplayName   *string   `json:"displayName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AccountAge returns how long ago the profile was created.
func (p *Profile) AccountAge(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID        string
	Email         string
	EmailVerified bool
}

// ProfileResponse is the API response for the current user.
type ProfileResponse struct {
	Profile
	AccountAgeDays int `json:"accountAgeDays"`
}
