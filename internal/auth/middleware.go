package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	dErrors "sealedreg/pkg/domain-errors"
	"sealedreg/pkg/requestcontext"
)

// TokenValidator validates bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireCoordinator guards privileged routes: the request must carry a valid,
// unrevoked bearer token with the coordinator role. The authenticated subject
// is placed in the context as the actor.
func RequireCoordinator(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token",
					"error", err, "request_id", requestcontext.RequestID(ctx))
				writeUnauthorized(w, "invalid token")
				return
			}
			if claims.Role != RoleCoordinator {
				writeUnauthorized(w, "coordinator role required")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err, "request_id", requestcontext.RequestID(ctx))
					writeUnauthorized(w, "token validation unavailable")
					return
				}
				if revoked {
					writeUnauthorized(w, "token revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, claims.Subject)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(dErrors.CodeUnauthorized))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             string(dErrors.CodeUnauthorized),
		"error_description": description,
	})
}
