package model

import "fmt"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// DisplayName returns the "Name (email)" label shown next to a user's links.
func (u User) DisplayName() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.Email)
}
