package middleware

import (
	"errors"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrBadToken   error = errors.New("bad token")
	ErrBadMethod  error = errors.New("bad sign method")
	ErrBadPayload error = errors.New("empty/expired payload")
)

// AuthJWT verifies HS256 tokens signed with the shared secret from
// the live section of the configuration.
type AuthJWT struct {
	secretKey []byte
}

func NewAuthJWT(secret string) *AuthJWT {
	return &AuthJWT{secretKey: []byte(secret)}
}

// Verify validates a raw JWT token; the signature itself carries
// the trust, the payload only identifies the viewer.
func (a *AuthJWT) Verify(tokenRaw string) (string, error) {
	token, err := jwt.Parse(tokenRaw, a.secretGetter)
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}
	payload, ok := token.Claims.(jwt.MapClaims)
	if !ok || payload.Valid() != nil {
		return "", ErrBadPayload
	}
	var id interface{}
	if id, ok = payload["viewer"]; !ok {
		return "", ErrBadPayload
	}
	viewer := ""
	if viewer, ok = id.(string); ok {
		return viewer, nil
	}
	return "", ErrBadPayload
}

// Issue creates a new signed token carrying a fresh viewer id,
// handed out to whoever operates the capture.
func (a *AuthJWT) Issue() (string, error) {
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"viewer": uuid.NewString(),
	})
	return jwtToken.SignedString(a.secretKey)
}

func (a *AuthJWT) secretGetter(token *jwt.Token) (interface{}, error) {
	method, ok := token.Method.(*jwt.SigningMethodHMAC)
	if !ok || method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, ErrBadMethod
	}
	return a.secretKey, nil
}
