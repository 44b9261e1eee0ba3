package middleware

import (
	"net/http"

	"venturelink/pkg/auth"
	"venturelink/pkg/common"
	pkgerrors "venturelink/pkg/errors"
)

// Authenticate resolves the session token from the session cookie or a Bearer
// header and stores the user in the request context. Requests without a valid
// session get 401.
func Authenticate(sessions *auth.SessionManager, errorHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.Authenticate(r)
			if err != nil {
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required").WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
		})
	}
}
