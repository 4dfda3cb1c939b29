package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims the API puts in its access tokens.
type AccessClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessToken decodes the claims of an access token without verifying
// its signature. The client never holds the signing key; claims are only
// used to schedule refreshes and label the session.
func ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of token, or the zero time if the token
// is opaque or carries no expiry.
func TokenExpiry(token string) time.Time {
	claims, err := ParseAccessToken(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
