package middleware

import (
	"context"
	"net/http"

	"github.com/zeehio/aves/pkg/common"
)

const AccessToken = "AccessToken"

type Authorizer interface {
	Verify(token string) (string, error)
}

// Middleware gates a handler behind token verification. The token
// is read from the AccessToken header, falling back to a ?token=
// query parameter since browser websocket clients cannot set
// custom headers.
func Middleware(a Authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AccessToken)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if idKey, err := a.Verify(token); err == nil {
			// expose the viewer id to underlying handlers
			ctx := r.Context()
			next.ServeHTTP(w, r.WithContext(context.WithValue(
				ctx, common.ViewerIDKey, idKey,
			)))
			return
		}
		http.Error(w, "Access token missing", http.StatusForbidden)
	})
}
