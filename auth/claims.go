package auth

import (
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Claims are the verified claims of a bearer token
type Claims struct {
	// Subject is the provider's object id of the user
	Subject    string
	Audience   []string
	Issuer     string
	Name       string
	Email      string
	TenantID   string
	Department string
}

// DevClaims is the fixed identity used when authentication is disabled
var DevClaims = Claims{
	Subject:    "00000000-0000-0000-0000-000000000000",
	Email:      "dev@example.com",
	Name:       "Dev User",
	Department: "DEV",
}

func claimsFromToken(tok jwt.Token) Claims {
	c := Claims{
		Subject:    stringClaim(tok, "oid"),
		Name:       stringClaim(tok, "name"),
		TenantID:   stringClaim(tok, "tid"),
		Department: stringClaim(tok, "department"),
		Email: firstNonEmpty(
			stringClaim(tok, "preferred_username"),
			stringClaim(tok, "email"),
			stringClaim(tok, "upn"),
		),
	}
	c.Audience, _ = tok.Audience()
	c.Issuer, _ = tok.Issuer()
	return c
}

func stringClaim(tok jwt.Token, name string) string {
	var v string
	if err := tok.Get(name, &v); err != nil {
		return ""
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
