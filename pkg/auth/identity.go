// Package auth resolves the verified caller identity from inbound requests.
// Identity issuance belongs to the external authentication provider; this
// package only verifies the signed token it hands out.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/practicelab/practicelab/pkg/jwt"
)

// Identity is the verified actor behind a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Claims is the token payload issued by the authentication provider.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

type identityCtxKey struct{}

// WithIdentity stores an identity in the context. Exposed for tests and
// for handlers that establish identity through other means.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the verified identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// Middleware verifies a bearer token and stashes the resulting identity in
// the request context. Requests without a valid token pass through
// anonymously; endpoints that require an actor reject them downstream.
func Middleware(svc *jwt.Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var claims Claims
			if err := svc.Parse(token, &claims); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: userID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts a token from "Authorization: Bearer <token>" per RFC 6750.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}
