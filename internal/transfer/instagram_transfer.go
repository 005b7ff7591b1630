package transfer

import "time"

type InstagramToken struct {
	AccessToken    string    `json:"access_token"`
	LongLivedToken string    `json:"long_lived_token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type InstagramAccountInfo struct {
	AccountID string `json:"id"`
	Username  string `json:"username"`
}
