package middleware

import (
	"net/http"

	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
)

// RequireRole gates a route group to the listed crew roles.
func RequireRole(logg *logger.Logger, roles ...enums.CrewRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.CrewRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
