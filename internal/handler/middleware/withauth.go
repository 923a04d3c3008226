package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/koyif/billing/internal/handler/response"
	"github.com/koyif/billing/internal/service"
	"github.com/koyif/billing/pkg/logger"
)

type ctxKey struct{}

const unauthenticatedMessage = "authentication required"

// WithAuth rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func WithAuth(privateKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.Log.Warn("unauthorized request", logger.String("url", r.RequestURI))
				response.Error(w, http.StatusUnauthorized, unauthenticatedMessage)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			userID, err := service.ParseToken(tokenString, privateKey)
			if err != nil {
				logger.Log.Warn("unauthorized request", logger.String("url", r.RequestURI), logger.Error(err))
				response.Error(w, http.StatusUnauthorized, unauthenticatedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

// Authenticated returns the caller's user id or answers 401 itself.
func Authenticated(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		logger.Log.Warn("no authenticated user", logger.String("url", r.RequestURI))
		response.Error(w, http.StatusUnauthorized, unauthenticatedMessage)
	}
	return userID, ok
}
