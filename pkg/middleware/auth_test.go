package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeehio/aves/pkg/common"
)

func TestMiddlewareAllowsVerifiedTokens(t *testing.T) {
	a := NewAuthJWT("capture-secret")
	token, err := a.Issue()
	require.NoError(t, err)

	var gotViewer interface{}
	handler := Middleware(a, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotViewer = r.Context().Value(common.ViewerIDKey)
	}))

	// header-based client
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set(AccessToken, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotViewer)

	// browser websocket client, token in the query string
	gotViewer = nil
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotViewer)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	a := NewAuthJWT("capture-secret")
	handler := Middleware(a, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
