// Package users stores therapist accounts. The role lives on the account
// row and is resolved into the request scope at session read time.
package users

import "time"

// User is a therapist (or admin) account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
