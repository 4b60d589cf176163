package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/botforge-ai/botforge/internal/api"
)

type contextKey string

const TenantIDKey contextKey = "tenant_id"

// AuthValidator resolves a bearer token to the owning tenant.
type AuthValidator interface {
	ValidateAPIKey(ctx context.Context, token string) (string, error)
}

// APIKeyAuth rejects requests without a valid API key and stores the
// resolved tenant ID in the request context.
func APIKeyAuth(validator AuthValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := bearerToken(r)
			if errMsg != "" {
				api.Error(w, http.StatusUnauthorized, errMsg)
				return
			}

			tenantID, err := validator.ValidateAPIKey(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header, returning
// a client-facing message when the header is absent or malformed.
func bearerToken(r *http.Request) (token, errMsg string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", "invalid authorization format"
	}
	return token, ""
}

// GetTenantID returns the tenant set by APIKeyAuth, or "" outside an
// authenticated request.
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDKey).(string)
	return tenantID
}
