package oauth

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_RoundTrip(t *testing.T) {
	g := NewGoogle("id", "secret", "http://localhost/cb", "state-key")

	st := g.MakeState("abc.def")
	assert.True(t, g.VerifyState(st))

	assert.False(t, g.VerifyState("abc.def"))
	assert.False(t, g.VerifyState("nodot"))
	assert.False(t, g.VerifyState(strings.Replace(st, "abc", "abd", 1)))
	assert.False(t, NewGoogle("id", "secret", "", "other-key").VerifyState(st))
}

func TestAuthURL(t *testing.T) {
	g := NewGoogle("client-1", "secret", "http://localhost/cb", "k")
	u := g.AuthURL("st")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "client_id=client-1")
	assert.Contains(t, u, "state=st")
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return s
}

func TestParseIDToken(t *testing.T) {
	good := jwt.MapClaims{
		"iss": "https://accounts.google.com", "aud": "client-1", "sub": "g-123",
		"email": "alice@x.com", "email_verified": true, "name": "Alice", "picture": "http://p",
	}

	u, err := ParseIDToken(idToken(t, good), "client-1")
	require.NoError(t, err)
	assert.Equal(t, &GoogleUser{Sub: "g-123", Email: "alice@x.com", EmailVerified: true, Name: "Alice", Picture: "http://p"}, u)

	with := func(k string, v any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for kk, vv := range good {
			c[kk] = vv
		}
		c[k] = v
		return c
	}

	_, err = ParseIDToken(idToken(t, with("iss", "evil")), "client-1")
	assert.ErrorIs(t, err, ErrBadIssuer)
	_, err = ParseIDToken(idToken(t, with("aud", "client-2")), "client-1")
	assert.ErrorIs(t, err, ErrBadAudience)
	_, err = ParseIDToken(idToken(t, with("email", "")), "client-1")
	assert.ErrorIs(t, err, ErrNoSubject)
	_, err = ParseIDToken("garbage", "client-1")
	assert.Error(t, err)
}
