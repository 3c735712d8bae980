package auth

import (
	"net/http"
	"strings"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// JWTMiddleware rejects requests without a valid bearer token and stores the
// caller as an rbac.Principal in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeUnauthorized(w, "missing bearer")
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "bad token")
				return
			}
			ctx := rbac.WithPrincipal(r.Context(), rbac.Principal{Subject: c.Sub, Role: c.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","kind":"unauthenticated"}`))
}
