package http

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TokenAuth guards the control API with a single bearer token. Only the
// bcrypt hash of the configured token is kept in memory.
type TokenAuth struct {
	hash []byte
}

func NewTokenAuth(token string) (*TokenAuth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &TokenAuth{hash: hash}, nil
}

func (a *TokenAuth) Validate(token string) bool {
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

func (a *TokenAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !a.Validate(strings.TrimSpace(token)) {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next(w, r)
	}
}
