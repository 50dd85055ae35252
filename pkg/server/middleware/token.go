package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAuthenticator validates bearer tokens on webhook and admin calls.
// Tokens are HMAC-signed JWTs minted by the LMS plugin from the shared
// webhook secret.
type TokenAuthenticator struct {
	secret []byte
}

// NewTokenAuthenticator creates a new TokenAuthenticator
func NewTokenAuthenticator(secret string) *TokenAuthenticator {
	return &TokenAuthenticator{secret: []byte(secret)}
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		_, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid authorization token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
