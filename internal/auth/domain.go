package auth

import "time"

// User represents an authenticated user account. LawFirmID and the
// assigned case list feed the authorization request context.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	LawFirmID    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
