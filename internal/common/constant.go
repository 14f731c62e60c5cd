package common

// Cookie names carrying the session tokens between the API and browsers.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)
