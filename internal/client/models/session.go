// Package models holds the data the vidhub CLI exchanges with the server
// and keeps locally.
package models

import "time"

// Session is the locally persisted login of the CLI user.
type Session struct {
	UserID       string
	UserName     string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}

// User is the account view returned by the server.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullname"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Tokens is an access/refresh token pair issued by the server.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	User *User `json:"user"`
	Tokens
}
