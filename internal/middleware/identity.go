package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/waihong/stocksim-be/internal/auth"
	"github.com/waihong/stocksim-be/internal/http/respond"
)

type contextKey string

const accountIDKey = contextKey("account_id")

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// RequireIdentity resolves the caller's identity from the session cookie or
// the Authorization header before any protected handler runs. Requests
// without a valid token fail whole with 403 and the handler never executes.
func RequireIdentity(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				respond.Error(w, http.StatusForbidden, "authentication required")
				return
			}
			accountID, err := tokens.Parse(token)
			if err != nil {
				respond.Error(w, http.StatusForbidden, "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountID returns the authenticated account id placed by RequireIdentity.
func AccountID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
