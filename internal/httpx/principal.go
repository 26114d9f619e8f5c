package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

type principalKey struct{}

// WithPrincipal reads the identity set by the upstream auth gateway.
// Requests without X-User-ID are anonymous.
func WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := reservations.Principal{
			ID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			Role:  reservations.RoleCustomer,
		}
		if reservations.Role(r.Header.Get(HeaderUserRole)) == reservations.RoleVenueAdmin {
			p.Role = reservations.RoleVenueAdmin
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func PrincipalFrom(ctx context.Context) reservations.Principal {
	p, _ := ctx.Value(principalKey{}).(reservations.Principal)
	return p
}
