package middleware

import (
	"net/http"

	"hrpay/internal/auth"
	"hrpay/internal/transport/http/api"
)

func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !auth.HasPermission(user.Role, permission) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AllowStaff reports whether the request user may read records owned by staffID,
// writing a 403 when not.
func AllowStaff(w http.ResponseWriter, r *http.Request, staffID string) bool {
	user, ok := GetUser(r.Context())
	if ok && user.CanAccessStaff(staffID) {
		return true
	}
	api.Fail(w, http.StatusForbidden, "forbidden", "cannot access another staff member's records", GetRequestID(r.Context()))
	return false
}
