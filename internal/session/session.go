package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buyerdesk/pkg/models"
)

var (
	// ErrTokenExpired means the bearer credential is past its expiry. The
	// auth collaborator owns recovery; callers should bounce there.
	ErrTokenExpired = errors.New("session: token expired")

	// ErrInvalidToken means the credential could not be parsed at all or is
	// missing the claims this client needs.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Claims are the portal token claims this client cares about. The token is
// issued and signed by the external auth service.
type Claims struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// Session is the viewer identity for one coordinator lifetime. A new token
// means a new Session and a fresh coordinator; state never survives a viewer
// change.
type Session struct {
	UserID    string
	Name      string
	Email     string
	Company   string
	Role      models.Role
	Token     string
	ExpiresAt time.Time
}

// Parse derives the viewer identity from a bearer token. The signature is
// not verified here: the client never holds the signing secret, and the
// backend rejects forged tokens with 401 anyway. Parsing only decides which
// view (admin list vs. single buyer thread) this process drives.
func Parse(token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role := models.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	s := &Session{
		UserID:  claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Company: claims.Company,
		Role:    role,
		Token:   token,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
		if time.Now().After(s.ExpiresAt) {
			return nil, fmt.Errorf("%w: expired at %s", ErrTokenExpired, s.ExpiresAt.Format(time.RFC3339))
		}
	}
	return s, nil
}

// IsAdmin reports whether the viewer belongs to the admin pool.
func (s *Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}
