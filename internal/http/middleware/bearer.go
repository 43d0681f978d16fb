package middleware

import (
	"net/http"
	"strings"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
)

// ForwardBearer copies the caller's bearer token into the request context so
// data API calls made on its behalf carry it. Requests without a token fall
// back to the service token.
func ForwardBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			r = r.WithContext(dataapi.ContextWithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBearer rejects requests without a bearer token. The data API
// validates the token itself.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(dataapi.ContextWithToken(r.Context(), token)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < len("Bearer ") || !strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(auth[len("Bearer "):])
	return token, token != ""
}
