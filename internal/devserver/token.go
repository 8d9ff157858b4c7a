package devserver

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buyerdesk/internal/session"
	"github.com/buyerdesk/pkg/models"
)

// devSecret signs tokens for local development only. The real portal issues
// tokens from the auth service; nothing in the client verifies signatures.
const devSecret = "buyerdesk-dev-secret"

// DevToken mints a signed bearer token for the dev server, valid for a day.
func DevToken(role models.Role, userID, name string) (string, error) {
	claims := &session.Claims{
		Role: string(role),
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "buyerdesk-dev",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(devSecret))
}
