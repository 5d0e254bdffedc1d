package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

const tokenCookieKey = "token"

const defaultJwtExpiration = time.Hour * 24

const (
	usernameClaim     = "username"
	basecampClaim     = "basecamp"
	basecampNameClaim = "basecamp_name"
	expClaim          = "exp"
)

// Session is the authenticated state carried by the token cookie.
// Basecamp is empty until the room secret has been verified.
type Session struct {
	Username     string
	Basecamp     string
	BasecampName string
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

func (s *NexusApp) createJwtForSession(sess Session, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		usernameClaim:     sess.Username,
		basecampClaim:     sess.Basecamp,
		basecampNameClaim: sess.BasecampName,
		expClaim:          time.Now().Add(exp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *NexusApp) extractSessionFromToken(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return Session{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("invalid token claims")
	}

	username, ok := claims[usernameClaim].(string)
	if !ok || username == "" {
		return Session{}, fmt.Errorf("invalid username claim")
	}

	sess := Session{Username: username}
	if basecamp, ok := claims[basecampClaim].(string); ok {
		sess.Basecamp = basecamp
	}
	if name, ok := claims[basecampNameClaim].(string); ok {
		sess.BasecampName = name
	}

	return sess, nil
}

func createJwtCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
