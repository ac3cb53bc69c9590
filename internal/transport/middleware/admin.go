package middleware

import (
	"net/http"

	"github.com/heartmarshall/estate-backend/pkg/ctxutil"
)

// RequireAdmin guards mutating routes. It must run after Auth:
// anonymous callers get 401, authenticated non-admins get 403.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !ctxutil.IsAdminCtx(r.Context()) {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
