package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/squadcart/core/session"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("returns payload claims", func(t *testing.T) {
		t.Parallel()
		tok := mintToken(t, jwt.MapClaims{"sub": "u-1", "companyId": "c-9", "role": "admin"})

		claims, err := session.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, session.Claims{"sub": "u-1", "companyId": "c-9", "role": "admin"}, claims)
		assert.Equal(t, "u-1", claims.Subject())
		assert.Equal(t, "c-9", claims.CompanyID())
		assert.Equal(t, "admin", claims.Role())
	})

	t.Run("signature is not verified", func(t *testing.T) {
		t.Parallel()
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-2"}).
			SignedString([]byte("some-other-key"))
		require.NoError(t, err)

		claims, err := session.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, "u-2", claims.Subject())
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		_, err := session.Decode("  ")
		assert.ErrorIs(t, err, session.ErrEmptyToken)
	})

	for _, tok := range []string{"not-a-token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"} {
		t.Run("malformed "+tok, func(t *testing.T) {
			t.Parallel()
			claims, err := session.Decode(tok)
			assert.ErrorIs(t, err, session.ErrMalformedToken)
			assert.Nil(t, claims)
		})
	}
}

func TestClaimsHelpers(t *testing.T) {
	t.Parallel()

	t.Run("subject fallbacks", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "42", session.Claims{"id": float64(42)}.Subject())
		assert.Equal(t, "u", session.Claims{"userId": "u"}.Subject())
		assert.Equal(t, "m", session.Claims{"_id": "m"}.Subject())
		assert.Empty(t, session.Claims{}.Subject())
	})

	t.Run("company fallbacks", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "c", session.Claims{"company_id": "c"}.CompanyID())
		assert.Equal(t, "t", session.Claims{"tenantId": "t"}.CompanyID())
	})

	t.Run("string formats numbers", func(t *testing.T) {
		t.Parallel()
		c := session.Claims{"whole": float64(7), "frac": 1.5, "bool": true}
		assert.Equal(t, "7", c.String("whole"))
		assert.Equal(t, "1.5", c.String("frac"))
		assert.Empty(t, c.String("bool"))
	})

	t.Run("expires at", func(t *testing.T) {
		t.Parallel()
		exp := time.Unix(1_900_000_000, 0)
		assert.Equal(t, exp, session.Claims{"exp": float64(exp.Unix())}.ExpiresAt())
		assert.True(t, session.Claims{}.ExpiresAt().IsZero())
	})

	t.Run("merge does not mutate receiver", func(t *testing.T) {
		t.Parallel()
		base := session.Claims{"sub": "u", "name": "Old"}
		merged := base.Merge(session.Claims{"name": "New", "phone": "+880"})
		assert.Equal(t, "Old", base["name"])
		assert.Equal(t, session.Claims{"sub": "u", "name": "New", "phone": "+880"}, merged)
	})

	t.Run("clone of nil is nil", func(t *testing.T) {
		t.Parallel()
		var c session.Claims
		assert.Nil(t, c.Clone())
	})
}
