package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DKhorkov/FastApi/internal/models"
	"github.com/DKhorkov/FastApi/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// IdentityResolver resolves request cookies to an AuthResult.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, cookies map[string]string) (service.AuthResult, error)
}

type userKey struct{}

// CookieMap flattens request cookies into a name → value map. When a name is
// repeated the first cookie wins, as with (*http.Request).Cookie.
func CookieMap(r *http.Request) map[string]string {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		if _, ok := cookies[c.Name]; !ok {
			cookies[c.Name] = c.Value
		}
	}
	return cookies
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok && user != nil
}

// AuthMiddleware rejects requests without a valid access_token cookie.
func AuthMiddleware(resolver IdentityResolver, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := resolver.ResolveIdentity(r.Context(), CookieMap(r))
			if err != nil {
				log.WithError(err).Errorf("Identity resolution failed for %s %s", r.Method, r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			switch res.Status {
			case service.Authenticated:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), res.User)))
			case service.InactiveAccount:
				log.Debugf("Inactive user %d rejected", res.User.ID)
				writeError(w, http.StatusBadRequest, res.Err().Error())
			default:
				log.Debugf("Unauthenticated request to %s", r.URL.Path)
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, res.Err().Error())
			}
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
