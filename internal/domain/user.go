package domain

import (
	"time"
)

// User is a Teller identity issued during enrollment. The id and access
// token both come from Teller Connect; re-enrolling overwrites the token.
type User struct {
	ID          string    `json:"id" db:"id"`
	AccessToken string    `json:"-" db:"access_token"`
	Name        string    `json:"name" db:"name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
