package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cartside/cartside-backend/api/responses"
	pkgAuth "github.com/cartside/cartside-backend/pkg/auth"
	"github.com/cartside/cartside-backend/pkg/config"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
	"github.com/cartside/cartside-backend/pkg/logger"
	"github.com/google/uuid"
)

// Auth validates a bearer token and seeds the request context with the cart
// owner identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.OwnerID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing owner identity"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOwnerID, claims.OwnerID.String())
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, claims.OwnerID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
