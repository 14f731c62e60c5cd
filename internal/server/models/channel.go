package models

// ChannelProfile is the public view of a user's channel as seen by viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	UserName                  string `json:"username"`
	FullName                  string `json:"fullname"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
