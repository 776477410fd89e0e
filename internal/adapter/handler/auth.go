package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const purchaserKey ctxKey = iota

// Auth validates the bearer token of a request and stores the purchaser
// identity (the email claim) in the request context. Token issuance lives in
// the session service; this middleware only verifies.
func Auth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			email, _ := claims["email"].(string)
			if email == "" {
				writeError(w, http.StatusUnauthorized, "token has no email claim")
				return
			}

			ctx := context.WithValue(r.Context(), purchaserKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PurchaserFrom returns the authenticated purchaser identity, if any.
func PurchaserFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(purchaserKey).(string)
	return email, ok && email != ""
}
