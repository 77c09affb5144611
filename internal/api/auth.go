package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const roleAdmin = "admin"

// Identity is the caller proven by the bearer token.
type Identity struct {
	UserID uint64
	Admin  bool
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the authenticated caller of ctx.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

var errBadSubject = errors.New("subject is not a user id")

// Authenticator verifies HS256 bearer tokens issued elsewhere.
type Authenticator struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewAuthenticator verifies tokens signed with secret. A non-empty issuer
// must match the iss claim.
func NewAuthenticator(secret, issuer string) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &Authenticator{secret: []byte(secret), opts: opts}
}

// Verify parses raw and returns the identity it carries.
func (a *Authenticator) Verify(raw string) (Identity, error) {
	var c tokenClaims

	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, a.opts...)
	if err != nil {
		return Identity{}, err
	}

	userID, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Identity{}, errBadSubject
	}

	return Identity{UserID: userID, Admin: c.Role == roleAdmin}, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeStatus(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		id, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireAdmin lets through callers with the admin role only.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.Admin {
			writeStatus(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func userFrom(r *http.Request) uint64 {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}
