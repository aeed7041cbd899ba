package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

// Authenticated verifies the bearer token of any assessor account.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// Admin verifies the bearer token and checks for the 'admin' role claim.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasRole(r, "admin") {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HasRole checks the comma-separated 'roles' claim of the current token.
func HasRole(r *http.Request, role string) bool {
	for _, have := range strings.Split(Claims(r)["roles"], ",") {
		if strings.TrimSpace(have) == role {
			return true
		}
	}
	return false
}

// Username returns the credential the current token was issued to.
func Username(r *http.Request) string {
	username, _ := r.Context().Value(oauth.CredentialContext).(string)
	return username
}

// WorkFunction returns the assessor's work function claim, used for
// training-course matching.
func WorkFunction(r *http.Request) string {
	return Claims(r)["work_function"]
}

func Claims(r *http.Request) map[string]string {
	claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	return claims
}
