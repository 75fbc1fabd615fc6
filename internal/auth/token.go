package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims carries the id of the server-side session the token points
// at. The token itself holds no user data; revoking the session invalidates
// every copy of the token.
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// issueToken signs an access token for a session id. Tokens do not expire on
// their own; they die with their session.
func issueToken(secret, sessionID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{SessionID: sessionID})
	return token.SignedString([]byte(secret))
}

// parseToken validates a token's signature and returns the session id it
// refers to.
func parseToken(secret, raw string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid access token")
	}
	return claims.SessionID, nil
}
