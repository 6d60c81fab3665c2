package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateAndVerify(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "quill")
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	manager.now = fixedClock(issued)

	token, claims, err := manager.GenerateToken(Subject{
		ID: "u1", Role: "author", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, issued.Add(time.Hour).Equal(claims.ExpiresAt.Time))

	manager.now = fixedClock(issued.Add(30 * time.Minute))
	verified, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", verified.Subject)
	assert.Equal(t, "author", verified.Role)
	assert.Equal(t, "Ada", verified.FirstName)
	assert.Equal(t, "Lovelace", verified.LastName)
	assert.Equal(t, "ada@example.com", verified.Email)
	assert.Equal(t, claims.ID, verified.ID)
}

func TestVerifyExpired(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "quill")
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	manager.now = fixedClock(issued)

	token, _, err := manager.GenerateToken(Subject{ID: "u1", Role: "admin"})
	require.NoError(t, err)

	manager.now = fixedClock(issued.Add(2 * time.Hour))
	_, err = manager.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret", time.Hour, "quill").GenerateToken(Subject{ID: "u1"})
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour, "quill").VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := JWTClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour, "quill").VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "quill")
	claims := JWTClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "quill")
	for _, raw := range []string{"", "abc", strings.Repeat("x.", 3)} {
		_, err := manager.VerifyToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
