package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Auth admits requests carrying a valid access token whose session has not
// been revoked. The caller's user id, role and access id are placed on the
// context for handlers and RequireRole.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "access token rejected"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token has no session"))
				return
			}

			if err := checkSession(ctx, sessions, claims.ID); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			userID := claims.UserID.String()
			ctx = context.WithValue(ctx, ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
			if logg != nil {
				ctx = logg.WithField(logg.WithUserID(ctx, userID), "actor_role", string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole runs behind Auth and admits only callers holding one of roles.
// A request with no role never passed Auth and is answered with 401.
func RequireRole(role string, more ...string) func(http.Handler) http.Handler {
	allowed := append([]string{role}, more...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual := RoleFromContext(r.Context())
			switch {
			case actual == "":
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			case !slices.Contains(allowed, actual):
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func checkSession(ctx context.Context, sessions session.AccessSessionChecker, accessID string) error {
	if sessions == nil {
		return nil
	}
	live, err := sessions.HasSession(ctx, accessID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed")
	}
	if !live {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired")
	}
	return nil
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
