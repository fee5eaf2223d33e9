package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/service"
)

type claimsCtxKey struct{}

// Auth returns middleware that validates the Authorization bearer token on
// management API routes. The data API authenticates per request via its
// apikey parameter instead and never passes through here.
func Auth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			claims, err := authSvc.ValidateAccessToken(token)
			if err != nil {
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the authenticated token claims, or nil outside
// an authenticated request.
func ClaimsFromContext(ctx context.Context) *tenant.TokenClaims {
	claims, _ := ctx.Value(claimsCtxKey{}).(*tenant.TokenClaims)
	return claims
}

// TenantFromContext returns the authenticated tenant ID, or 0.
func TenantFromContext(ctx context.Context) int64 {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.TenantID
	}
	return 0
}
