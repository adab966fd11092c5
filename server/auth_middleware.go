package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
)

// RequireAuth is middleware that validates the application's Bearer
// session token and injects the user id into the request context. The
// broker only needs to know who the user is; everything else about the
// enclosing application session is out of scope.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"unauthorized","error_description":"Missing Authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"unauthorized","error_description":"Invalid Authorization header format"}`, http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				http.Error(w, `{"error":"unauthorized","error_description":"Empty token"}`, http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(s.config.GetAuthTokenSecret()), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				log.Warn().Err(err).Msg("Rejected bearer token")
				http.Error(w, `{"error":"unauthorized","error_description":"Invalid token"}`, http.StatusUnauthorized)
				return
			}

			userID, err := token.Claims.GetSubject()
			if err != nil || userID == "" {
				http.Error(w, `{"error":"unauthorized","error_description":"Token missing subject"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next(w, r.WithContext(ctx))
		}
	}
}

// userIDFromContext returns the authenticated user id, if any.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}
