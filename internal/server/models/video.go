package models

import "time"

type VideoOwner struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
	FullName string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is one watch-history entry, owner included.
type WatchedVideo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoFile   string     `json:"videoFile"`
	Thumbnail   string     `json:"thumbnail"`
	Duration    float64    `json:"duration"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"createdAt"`
	Owner       VideoOwner `json:"owner"`
}
