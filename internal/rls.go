package internal

import (
	"context"
	"net/http"
)

// SessionBinder pins a database session scoped to a location into the
// context. The postgres store implements it; a nil location is unrestricted.
type SessionBinder interface {
	BindSession(ctx context.Context, locationID *int64) (context.Context, func(), error)
}

// withRLSSession binds each authenticated request to a database session whose
// row-level security is keyed on the caller's home location. Admins get an
// unrestricted session.
func (s *Server) withRLSSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		var scope *int64
		if !p.Elevated() {
			scope = p.LocationID
		}

		ctx, release, err := s.Sessions.BindSession(r.Context(), scope)
		if err != nil {
			s.sendError(w, r, err)
			return
		}
		defer release()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
