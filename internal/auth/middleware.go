package auth

import (
	"net/http"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// RequireAuth verifies the bearer token and installs the tenant scope
// in the request context. Handlers downstream never see a request
// without a resolved tenant.
func RequireAuth(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			userID, err := issuer.Verify(token)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := tenancy.WithScope(r.Context(), tenancy.Scope{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
