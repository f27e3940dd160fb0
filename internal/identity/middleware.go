package identity

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-patungan/internal/common"
)

// Middleware wires identity resolution into HTTP handlers.
type Middleware struct {
	Resolver Resolver
}

// RequireUser enforces that the request carries a resolvable identity before
// executing the next handler.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Resolver == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "identity resolver not configured", nil)
			return
		}
		ident, err := m.Resolver.Resolve(r.Context(), r.Header.Get(HeaderUserID), r.Header.Get(HeaderUserName))
		if err != nil {
			switch {
			case errors.Is(err, ErrNoIdentity):
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+HeaderUserID+" header", nil)
			case errors.Is(err, ErrMalformedIdentity):
				common.JSONError(w, http.StatusBadRequest, "INVALID_USER_ID", "user id must be a UUID", nil)
			default:
				common.WriteError(w, err)
			}
			return
		}
		ctx := common.WithUserID(r.Context(), ident.UserID.String())
		ctx = common.WithUserName(ctx, ident.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
