package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyerdesk/pkg/models"
)

func mintToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseAdminToken(t *testing.T) {
	token := mintToken(t, &Claims{
		Role: "admin",
		Name: "Support Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	s, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", s.UserID)
	assert.Equal(t, models.RoleAdmin, s.Role)
	assert.True(t, s.IsAdmin())
	assert.Equal(t, token, s.Token)
}

func TestParseBuyerToken(t *testing.T) {
	token := mintToken(t, &Claims{
		Role:    "buyer",
		Name:    "Jordan Reyes",
		Email:   "jordan@acme.example",
		Company: "Acme Wholesale",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "buyer-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	s, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, s.Role)
	assert.False(t, s.IsAdmin())
	assert.Equal(t, "Acme Wholesale", s.Company)
	assert.Equal(t, "jordan@acme.example", s.Email)
}

func TestParseTrimsBearerPrefix(t *testing.T) {
	token := mintToken(t, &Claims{
		Role:             "buyer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "buyer-1"},
	})

	s, err := Parse("  Bearer " + token + " ")
	require.NoError(t, err)
	assert.Equal(t, token, s.Token)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token := mintToken(t, &Claims{
		Role: "buyer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "buyer-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"unknown role", mintTokenRole(t, "superuser", "u1")},
		{"missing subject", mintTokenRole(t, "buyer", "")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func mintTokenRole(t *testing.T, role, subject string) string {
	t.Helper()
	return mintToken(t, &Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
}
