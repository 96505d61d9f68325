package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"useradmin/internal/auth"
	"useradmin/internal/httpjson"
	"useradmin/internal/models"
	"useradmin/internal/store"
)

// AccountStore defines the lookup the middleware needs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

type ctxKey struct{}

// AccountFrom returns the authenticated account injected by RequireAuth,
// or nil on an unprotected route.
func AccountFrom(ctx context.Context) *models.Account {
	acc, _ := ctx.Value(ctxKey{}).(*models.Account)
	return acc
}

// RequireAuth validates the bearer token and re-reads the account's current
// status on every request. A token stays syntactically valid after its holder
// is blocked or deleted; this is the point where such calls are rejected.
func RequireAuth(tokens *auth.TokenService, accounts AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				httpjson.Error(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			acc, err := accounts.GetByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
					httpjson.Error(w, http.StatusNotFound, "user not found")
					return
				}
				httpjson.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			switch acc.Status {
			case models.StatusBlocked:
				httpjson.Write(w, http.StatusForbidden, map[string]string{
					"error":     "user is blocked",
					"blockedBy": blockerName(r.Context(), accounts, acc),
				})
				return
			case models.StatusDeleted:
				httpjson.Error(w, http.StatusForbidden, "user is deleted")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, acc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// blockerName resolves the display name of whoever blocked the account.
// A blocker that has since been deleted reports as "Unknown".
func blockerName(ctx context.Context, accounts AccountStore, acc *models.Account) string {
	blocker, err := accounts.GetByID(ctx, acc.BlockedBy.Hex())
	if err != nil {
		return "Unknown"
	}
	return blocker.Name
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
