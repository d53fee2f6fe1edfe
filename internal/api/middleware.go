package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"workspace-server/internal/auth"
)

type claimsKey struct{}

var (
	errMissingAuthHeader = errors.New("authorization header required")
	errMalformedAuth     = errors.New("authorization header must be 'Bearer <token>'")
)

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", errMalformedAuth
	}
	return token, nil
}

func (s *Server) authenticate(token string) (*auth.AppClaims, error) {
	return auth.VerifyJWT(token, s.config.JWT.Secret)
}

// AuthMiddleware rejects requests without a valid access token and stores
// the token's claims in the request context.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := s.authenticate(token)
		if err != nil {
			slog.DebugContext(r.Context(), "rejected access token", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func withClaims(ctx context.Context, claims *auth.AppClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func GetUserFromContext(ctx context.Context) *auth.AppClaims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.AppClaims)
	return claims
}
