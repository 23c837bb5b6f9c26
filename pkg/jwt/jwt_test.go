package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicelab/practicelab/pkg/jwt"
)

func TestService_GenerateAndParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	claims := jwt.StandardClaims{
		Subject:   "b7a9c1d2-0000-0000-0000-000000000001",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	token, err := svc.Generate(claims)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	var parsed jwt.StandardClaims
	require.NoError(t, svc.Parse(token, &parsed))
	assert.Equal(t, claims.Subject, parsed.Subject)
}

func TestService_Parse_TamperedSignature(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	token, err := svc.Generate(jwt.StandardClaims{Subject: "user"})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	err = svc.Parse(token+"x", &parsed)
	assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
}

func TestService_Parse_WrongKey(t *testing.T) {
	t.Parallel()

	issuer, err := jwt.NewFromString("issuer-key-0000000000000000000000")
	require.NoError(t, err)
	verifier, err := jwt.NewFromString("other-key-00000000000000000000000")
	require.NoError(t, err)

	token, err := issuer.Generate(jwt.StandardClaims{Subject: "user"})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	assert.ErrorIs(t, verifier.Parse(token, &parsed), jwt.ErrInvalidSignature)
}

func TestService_Parse_Expired(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	token, err := svc.Generate(jwt.StandardClaims{
		Subject:   "user",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	var parsed jwt.StandardClaims
	assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrExpiredToken)
}
