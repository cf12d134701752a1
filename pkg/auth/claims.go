// Package auth provides JWT-based authentication for sqldeck-engine.
// It validates tokens against configured JWKS endpoints and exposes the
// authenticated user to downstream handlers via the request context.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims represents the JWT claims structure accepted by the engine.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds the custom claims the bootstrap surface cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email     string   `json:"email,omitempty"`      // User email address
	Username  string   `json:"username,omitempty"`   // Display username
	FirstName string   `json:"given_name,omitempty"` // Given name
	LastName  string   `json:"family_name,omitempty"`
	Roles     []string `json:"roles,omitempty"` // User roles
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
// Returns empty string and false if token is not present.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
