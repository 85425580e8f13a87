package media

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the media access token this client cares
// about. The token is issued and signed server-side; the client cannot
// verify the signature (it has no secret) but can read the claims to
// sanity-check the grant before dialing.
type TokenClaims struct {
	Identity  string
	Room      string
	ExpiresAt time.Time
}

// ParseToken decodes the claims of a media access token without
// verifying its signature.
func ParseToken(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	tc := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		tc.Identity = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}

	// The room grant lives in the "video" claim for audio and video
	// tokens alike; older tokens carry a top-level "room".
	if grant, ok := claims["video"].(map[string]any); ok {
		if room, ok := grant["room"].(string); ok {
			tc.Room = room
		}
	}
	if tc.Room == "" {
		if room, ok := claims["room"].(string); ok {
			tc.Room = room
		}
	}

	return tc, nil
}

// Expired reports whether the token's expiry has passed. Tokens without
// an expiry never expire.
func (c *TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
