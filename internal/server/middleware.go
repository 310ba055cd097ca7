package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

type contextKey string

const callerContextKey contextKey = "tupli.caller"

// publicPaths need no access token. The refresh endpoint authenticates
// itself against the refresh token carried in the Authorization header.
var publicPaths = map[string]bool{
	"/":                           true,
	"/access/signup":              true,
	"/access/users/token":         true,
	"/access/users/refresh-token": true,
}

// bearerToken extracts the token from an Authorization header. Any
// scheme other than Bearer is rejected.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", schema.Unauthorizedf("Not authenticated")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", schema.Unauthorizedf("Invalid authorization header")
	}
	return token, nil
}

// AuthMiddleware verifies the access token on every non-public route and
// stores the resolved caller in the request context.
func AuthMiddleware(svc iam.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			token, err := bearerToken(r)
			if err != nil {
				respondError(w, err)
				return
			}
			caller, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), callerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated caller stored by
// AuthMiddleware, or nil on public routes.
func CallerFromContext(ctx context.Context) *iam.Caller {
	caller, _ := ctx.Value(callerContextKey).(*iam.Caller)
	return caller
}
