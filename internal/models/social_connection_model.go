package models

import "time"

// SocialConnection links a user to one external social account.
// FBPageID and IGAccountID are mutually exclusive: exactly one is set,
// depending on the provider that created the row.
type SocialConnection struct {
	ID          int64      `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	FBPageID    *string    `db:"fb_page_id" json:"fb_page_id,omitempty"`
	IGAccountID *string    `db:"ig_account_id" json:"ig_account_id,omitempty"`
	AccessToken string     `db:"access_token" json:"-"`
	TokenExpiry time.Time  `db:"token_expiry" json:"token_expiry"`
	RefreshedAt *time.Time `db:"refreshed_at" json:"refreshed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

func (sc *SocialConnection) Provider() string {
	if sc.FBPageID != nil {
		return "facebook"
	}
	if sc.IGAccountID != nil {
		return "instagram"
	}
	return ""
}
