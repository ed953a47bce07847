package model

import "time"

// User is a platform account. Roles beyond admin/user are out of scope; the
// exam core only ever consumes the resolved user ID.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}
