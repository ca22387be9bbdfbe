package models

// User is a studio account. ID is the lowercased email when one was given at
// first login, otherwise a random UUID.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}
