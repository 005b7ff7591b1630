package transfer

import "github.com/golang-jwt/jwt/v5"

// StateClaims is the signed payload carried in the OAuth state parameter.
type StateClaims struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}
