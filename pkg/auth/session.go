package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer   = "dexter"
	defaultAudience = "dexter-app"
)

var defaultLeeway = 30 * time.Second

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenRevoked = errors.New("session token revoked")
)

// SessionOptions configures claim validation.
type SessionOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	Revoker  Revoker
}

// SessionCodec issues and verifies HS256 session tokens whose subject is the
// user id.
type SessionCodec struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	leeway   time.Duration
	revoker  Revoker
}

func NewSessionCodec(secret string, ttl time.Duration, opts SessionOptions) (*SessionCodec, error) {
	if len(strings.TrimSpace(secret)) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	opts = normalizeSessionOptions(opts)
	return &SessionCodec{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		revoker:  opts.Revoker,
	}, nil
}

// Issue signs a session for userID.
func (c *SessionCodec) Issue(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{c.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        randomHexID(12),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// UserID verifies token and returns its subject.
func (c *SessionCodec) UserID(ctx context.Context, token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	if c.revoker != nil {
		revoked, err := c.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", err
		}
		if revoked {
			return "", ErrTokenRevoked
		}
	}
	return claims.Subject, nil
}

// Revoke blocks token until it expires. Unparseable tokens are ignored.
func (c *SessionCodec) Revoke(ctx context.Context, token string) error {
	if c.revoker == nil {
		return nil
	}
	claims, err := c.parse(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	return c.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (c *SessionCodec) parse(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)
	if err != nil || !parsed.Valid {
		return claims, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" {
		return claims, fmt.Errorf("%w: missing sub or jti", ErrInvalidToken)
	}
	return claims, nil
}

func randomHexID(nBytes int) string {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}

func normalizeSessionOptions(opts SessionOptions) SessionOptions {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	opts.Audience = strings.TrimSpace(opts.Audience)
	if opts.Issuer == "" {
		opts.Issuer = defaultIssuer
	}
	if opts.Audience == "" {
		opts.Audience = defaultAudience
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultLeeway
	}
	return opts
}
