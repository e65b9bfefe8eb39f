package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accountapp/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims is the wire form of domain.Claims.
type Claims struct {
	jwt.RegisteredClaims
	Login string      `json:"login"`
	Role  domain.Role `json:"role"`
}

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	Lifetime time.Duration
}

// JWT signs HS256 access tokens bound to one issuer and audience.
type JWT struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
}

func NewJWT(cfg Config) (*JWT, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}

	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("jwt lifetime must be positive, got %s", cfg.Lifetime)
	}

	return &JWT{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}, nil
}

// WithClock replaces the time source used for iat/exp and validation.
func (j *JWT) WithClock(now func() time.Time) *JWT {
	j.now = now
	return j
}

func (j *JWT) Lifetime() time.Duration {
	return j.lifetime
}

func (j *JWT) Issue(claims domain.Claims) (domain.Token, error) {
	issuedAt := j.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(j.lifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Login: claims.Login,
		Role:  claims.Role,
	})

	signed, err := token.SignedString(j.secret)

	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry.
func (j *JWT) Verify(tokenString string) (domain.Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return domain.Claims{}, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)

	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: bad subject: %w", ErrInvalidToken, err)
	}

	result := domain.Claims{
		Subject: subject,
		Login:   claims.Login,
		Role:    claims.Role,
	}

	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time.UTC()
	}

	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return result, nil
}
