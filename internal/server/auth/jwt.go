// Package auth mints and verifies the signed session tokens (HS256 JWT)
// used for both access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum HMAC key size in bytes.
const MinSecretLength = 32

var ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)

// TokenType distinguishes access tokens from refresh tokens. A token of
// one type never verifies as the other.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the token payload: the registered claims plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"type"`
}

// Codec is stateless apart from its configuration and safe for
// concurrent use.
type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec validates the signing configuration. A short secret is a
// startup error, never a silent downgrade.
func NewCodec(secret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Codec{
		secret:     append([]byte(nil), secret...),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL is the default lifetime of access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the lifetime given to refresh tokens.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// CreateAccessToken mints an access token for subject. A zero ttl means
// the configured default; a negative ttl yields an already expired token.
func (c *Codec) CreateAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = c.accessTTL
	}
	return c.sign(subject, TokenAccess, ttl)
}

// CreateRefreshToken mints a refresh token for subject with the configured lifetime.
func (c *Codec) CreateRefreshToken(subject string) (string, error) {
	return c.sign(subject, TokenRefresh, c.refreshTTL)
}

func (c *Codec) sign(subject string, typ TokenType, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: typ,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks signature, expiry, not-before, issuer, audience and
// type, and returns the claims. Expiry yields common.ErrTokenExpired; every
// other failure yields common.ErrInvalidToken.
func (c *Codec) VerifyToken(tokenString string, expected TokenType) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		default:
			return nil, common.ErrInvalidToken
		}
	}

	if !token.Valid || claims.Type != expected || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
