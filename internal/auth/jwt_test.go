package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidate(t *testing.T) {
	v := NewJWTValidator("secret")

	uid, err := v.Validate(sign(t, "secret", Claims{UserID: "alice"}))
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestValidateRejects(t *testing.T) {
	v := NewJWTValidator("secret")

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Validate(sign(t, "other", Claims{UserID: "alice"}))
		assert.Error(t, err)
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := v.Validate(sign(t, "secret", Claims{}))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := v.Validate(sign(t, "secret", Claims{
			UserID: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Validate("not.a.token")
		assert.Error(t, err)
	})
}
