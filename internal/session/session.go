// Package session exposes the signed-in user to the notification code. The
// role is read from the bearer token's claims; signature checks are the
// server's job.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/notification-center/internal/model"
)

// ErrNoRole is returned when the token carries no recognizable role.
var ErrNoRole = errors.New("token has no patient or therapist role")

// Provider exposes the current user. Consumers only read from it.
type Provider interface {
	User() model.User
}

// Claims is the subset of the access token the client reads.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// role returns the first recognized role, preferring the single-valued claim.
func (c *Claims) role() (model.Role, bool) {
	candidates := append([]string{c.Role}, c.Roles...)
	for _, r := range candidates {
		switch model.Role(r) {
		case model.RolePatient, model.RoleTherapist:
			return model.Role(r), true
		}
	}
	return "", false
}

// Static is a Provider with a fixed user.
type Static struct {
	u model.User
}

// NewStatic returns a provider that always reports u.
func NewStatic(u model.User) *Static {
	return &Static{u: u}
}

// User returns the fixed user.
func (s *Static) User() model.User { return s.u }

// FromToken reads the user from an access token without verifying its
// signature. An expired token is rejected so a stale session does not keep
// routing for a role it may no longer hold.
func FromToken(token string, now time.Time) (*Static, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return nil, fmt.Errorf("session token expired at %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	role, ok := claims.role()
	if !ok {
		return nil, ErrNoRole
	}
	return NewStatic(model.User{ID: claims.Subject, Role: role}), nil
}

// Mint signs an HS256 access token for u. The demo backend uses it to hand
// the client a realistic token.
func Mint(u model.User, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}
