package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/pkg/jwt"
)

func newTokenService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewFromString("identity-test-key-00000000000000000")
	require.NoError(t, err)
	return svc
}

func issueToken(t *testing.T, svc *jwt.Service, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := svc.Generate(auth.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Email: email,
	})
	require.NoError(t, err)
	return token
}

func TestMiddleware_ValidToken(t *testing.T) {
	t.Parallel()

	svc := newTokenService(t)
	userID := uuid.New()

	var got auth.Identity
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.IdentityFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, svc, userID, "coach@example.com"))

	auth.Middleware(svc)(next).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "coach@example.com", got.Email)
}

func TestMiddleware_MissingOrInvalidToken(t *testing.T) {
	t.Parallel()

	svc := newTokenService(t)

	cases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var found bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, found = auth.IdentityFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			auth.Middleware(svc)(next).ServeHTTP(httptest.NewRecorder(), req)
			assert.False(t, found, "anonymous request must not carry an identity")
		})
	}
}
