// Package token mints and verifies the signed identity tokens exchanged
// between the edge gateway and the backing service. A token is a compact
// HS256 JWT carrying only subject, issued-at and expiry; access and refresh
// tokens share the encoding and differ only in lifetime.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for every validation failure: bad signature, wrong
// algorithm, expired token, or a structurally malformed input. Callers never
// learn which; an invalid token is unauthenticated, full stop.
var ErrInvalid = errors.New("token: invalid token")

// Codec issues and validates identity tokens with a single symmetric secret.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source (used in tests).
func WithClock(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. The secret must be non-empty; TTLs must be
// positive.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token: secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: token TTLs must be positive")
	}
	c := &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the subject with the given lifetime.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token: subject is required")
	}
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// IssueAccess signs a short-lived access token for the subject.
func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.Issue(subject, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the subject.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.Issue(subject, c.refreshTTL)
}

// AccessTTL reports the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Validate verifies signature and expiry and returns the subject claim.
// Expiry is strict: the token is valid only while now is before exp, with no
// skew window.
func (c *Codec) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithLeeway(0))
	if err != nil {
		return "", ErrInvalid
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalid
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrInvalid
	}
	if claims.ExpiresAt == nil || !c.now().Before(claims.ExpiresAt.Time) {
		return "", ErrInvalid
	}
	return subject, nil
}
