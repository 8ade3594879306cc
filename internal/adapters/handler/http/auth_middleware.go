package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

type contextKey string

const claimsKey contextKey = "claims"

// Auth guards routes with access tokens. A nil verifier disables every check.
type Auth struct {
	verifier ports.TokenVerifier
}

func NewAuth(verifier ports.TokenVerifier) *Auth {
	return &Auth{verifier: verifier}
}

func (a *Auth) Enabled() bool {
	return a != nil && a.verifier != nil
}

// Authenticate attaches the token's claims to the request context. Requests
// without a token pass through anonymously; a bad token is rejected.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.verifier.VerifyAccessToken(token)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (a *Auth) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: missing access token", http.StatusUnauthorized)
				return
			}
			if claims.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*ports.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*ports.TokenClaims)
	return claims, ok
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
