// Package auth is the boundary to the identity provider: it verifies
// tokens minted by the login service and hands the rest of the server
// an already-authenticated identity. Nothing downstream re-checks
// credentials per event.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

var (
	ErrNoToken      = errors.New("token is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is what the realtime engine and HTTP handlers know about a
// caller.
type Identity struct {
	UserID     string
	Role       string
	Instrument string
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	Instrument string `json:"instrument,omitempty"`
}

// Verifier parses and validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Parse validates token and extracts the caller's identity.
func (v *Verifier) Parse(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrNoToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:     c.Subject,
		Role:       c.Role,
		Instrument: c.Instrument,
	}, nil
}

// FromRequest locates the token on an HTTP request and verifies it.
// Accepted sources, in order: Authorization bearer header, the
// X-Jamoveo-Token header, and a token query parameter (browsers cannot
// set headers on WebSocket dials).
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return v.Parse(strings.TrimPrefix(auth, "Bearer "))
	}
	if tok := r.Header.Get("X-Jamoveo-Token"); tok != "" {
		return v.Parse(tok)
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return v.Parse(tok)
	}
	return Identity{}, ErrNoToken
}

// Sign mints a token for id, valid for ttl. The login service is the
// real issuer; this exists for tests and local tooling.
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:       id.Role,
		Instrument: id.Instrument,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
