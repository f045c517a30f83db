// Package auth issues and verifies the bearer tokens used by clients that
// cannot be identified through Tailscale, such as the session CLI.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds the signing parameters.
type Config struct {
	Secret string
	Issuer string
}

// Enabled reports whether tokens can be verified.
func (c Config) Enabled() bool { return c.Secret != "" }

// Identity is the caller described by a token.
type Identity struct {
	Login       string
	DisplayName string
	ExpiresAt   time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Issue signs a token for login valid for ttl.
func Issue(cfg Config, login, displayName string, ttl time.Duration, now time.Time) (string, error) {
	if !cfg.Enabled() {
		return "", errors.New("jwt secret not configured")
	}
	if login == "" {
		return "", errors.New("login is required")
	}
	claims := jwt.MapClaims{
		"sub":  login,
		"name": displayName,
		"iss":  cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the identity it carries.
func Parse(token string, cfg Config) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	login, _ := claims["sub"].(string)
	if login == "" {
		return Identity{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = login
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Login: login, DisplayName: name, ExpiresAt: exp.Time}, nil
}

// FromHeader extracts and validates the token of an Authorization header.
func FromHeader(header string, cfg Config) (Identity, error) {
	if header == "" {
		return Identity{}, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return Identity{}, ErrInvalidToken
	}
	return Parse(header[len("Bearer "):], cfg)
}
