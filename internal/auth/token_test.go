package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkHub_Backend/internal/apperr"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("super-secret", time.Hour)
	tok, err := issuer.Issue("user-123")
	require.NoError(t, err)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", -time.Second)
	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authentication))
	assert.Equal(t, "Token has expired", apperr.From(err).Message)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer("right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong-secret", time.Hour).Verify(tok)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authentication))
	assert.Equal(t, "Invalid token", apperr.From(err).Message)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := issuer.Verify(tok)
		assert.True(t, apperr.Is(err, apperr.Authentication), "token %q", tok)
	}
}

func TestVerify_RejectsOtherSigningMethods(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("k", time.Hour)
	claims := &Claims{
		UserID: "u3",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.True(t, apperr.Is(err, apperr.Authentication))
}

func TestVerify_MissingUserID(t *testing.T) {
	t.Parallel()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("k", time.Hour).Verify(tok)
	assert.True(t, apperr.Is(err, apperr.Authentication))
}

func TestNewTokenIssuer_RandomKeyWhenSecretMissing(t *testing.T) {
	t.Parallel()

	a := NewTokenIssuer("", time.Hour)
	b := NewTokenIssuer("", time.Hour)

	tok, err := a.Issue("u4")
	require.NoError(t, err)

	_, err = a.Verify(tok)
	require.NoError(t, err)
	_, err = b.Verify(tok)
	assert.Error(t, err)
}
