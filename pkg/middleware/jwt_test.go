package middleware

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuthJWTRoundTrip(t *testing.T) {
	a := NewAuthJWT("capture-secret")

	token, err := a.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	viewer, err := a.Verify(token)
	require.NoError(t, err)
	_, err = uuid.Parse(viewer)
	require.NoError(t, err, "viewer id should be a uuid")
}

func TestAuthJWTRejectsForeignTokens(t *testing.T) {
	issuer := NewAuthJWT("capture-secret")
	verifier := NewAuthJWT("another-secret")

	token, err := issuer.Issue()
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrBadToken)
}

func TestAuthJWTRejectsGarbage(t *testing.T) {
	a := NewAuthJWT("capture-secret")
	_, err := a.Verify("not-a-token")
	require.ErrorIs(t, err, ErrBadToken)
	_, err = a.Verify("")
	require.ErrorIs(t, err, ErrBadToken)
}
