package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// tokenExpired inspects the token's registered claims without verifying the
// signature. Verification belongs to the commerce API; the storefront only
// refuses to keep tokens it can already see are expired.
func tokenExpired(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque tokens are passed through untouched.
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.Before(now)
}
