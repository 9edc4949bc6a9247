package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"go.uber.org/zap"
)

type contextKey string

const schoolContextKey contextKey = "school"

func SchoolFromContext(ctx context.Context) *domain.School {
	s, _ := ctx.Value(schoolContextKey).(*domain.School)
	return s
}

// WithSchool returns a context carrying the authenticated school.
func WithSchool(ctx context.Context, s *domain.School) context.Context {
	return context.WithValue(ctx, schoolContextKey, s)
}

func APIKeyAuth(schools domain.SchoolStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			school, err := schools.GetByAPIKeyHash(r.Context(), hashAPIKey(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			if scope := scopeFromContext(r.Context()); scope != nil {
				scope.schoolID = school.ID.String()
			}
			ctx := WithSchool(r.Context(), school)
			ctx = withLogger(ctx, LoggerFromContext(ctx).With(zap.String("school_id", school.ID.String())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// HashAPIKey is exported for use when creating schools.
func HashAPIKey(key string) string {
	return hashAPIKey(key)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
