package model

import "time"

// UserInfo describes an authenticated user. It is produced only by a
// successful authentication and never carries the credential secret.
type UserInfo struct {
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsPremium bool      `json:"isPremium"`
	CreatedAt time.Time `json:"createdAt"`
}
