package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// AccessTokenClaims is the bearer token body: the standard registered claims
// plus the profile fields used for just-in-time provisioning.
type AccessTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity extracts the caller identity from the claims.
func (c *AccessTokenClaims) Identity() Identity {
	return Identity{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}
}
