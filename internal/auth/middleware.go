package auth

import (
	"net/http"
	"strings"

	"github.com/gatehq/gatehouse/internal/platform/httpx"
	"github.com/gatehq/gatehouse/internal/shared"
	"github.com/gatehq/gatehouse/internal/token"
)

// RequireUser guards routes behind bearer-token authentication. Requests
// carrying a valid token proceed with the user ID stored in context;
// everything else gets a uniform 401.
func RequireUser(issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.RespondError(w, shared.ErrInvalidToken)
				return
			}

			userID, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httpx.RespondError(w, shared.ErrInvalidToken)
				return
			}

			ctx := shared.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
