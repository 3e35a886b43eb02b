// Package session decodes the identity carried by the web tier's session
// cookie. The same codec backs the HTTP API and the websocket handshake.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"regimath/backend/internal/room"
)

const (
	issuer       = "regimath-web"
	bearerPrefix = "Bearer "
)

var (
	ErrNoSession      = errors.New("session: no session")
	ErrInvalidSession = errors.New("session: invalid session")
)

// Identity is the authenticated user bound to a request or connection.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens.
type Codec struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
}

func NewCodec(secret, cookieName string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), cookieName: cookieName, ttl: ttl}
}

// CookieName is the name of the cookie holding the session token.
func (c *Codec) CookieName() string { return c.cookieName }

// Issue signs a session token for id.
func (c *Codec) Issue(id Identity) (string, error) {
	if !room.ValidIdentity(id.ID) {
		return "", fmt.Errorf("%w: identity %q cannot address a room", ErrInvalidSession, id.ID)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	return token.SignedString(c.secret)
}

// Decode verifies token and returns the identity it carries.
func (c *Codec) Decode(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoSession
	}

	var cl claims
	_, err := jwt.ParseWithClaims(token, &cl, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !room.ValidIdentity(cl.Subject) {
		return Identity{}, fmt.Errorf("%w: unusable subject %q", ErrInvalidSession, cl.Subject)
	}

	return Identity{ID: cl.Subject, Name: cl.Name}, nil
}

// FromRequest extracts the identity from the session cookie, falling back to a
// bearer token for non-browser clients.
func (c *Codec) FromRequest(r *http.Request) (Identity, error) {
	if cookie, err := r.Cookie(c.cookieName); err == nil && cookie.Value != "" {
		return c.Decode(cookie.Value)
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return c.Decode(strings.TrimPrefix(authHeader, bearerPrefix))
	}

	return Identity{}, ErrNoSession
}

// DisplayName returns the name to show for the identity.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}
