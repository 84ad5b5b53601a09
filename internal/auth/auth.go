package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const (
	RoleAdmin    = "admin"
	adminSubject = "admin"
	issuer       = "delegate-feedback"
)

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator checks the dashboard PIN against its bcrypt hash and issues
// short-lived HS256 tokens.
type Authenticator struct {
	pinHash []byte
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewAuthenticator(cfg config.AdminConfig) (*Authenticator, error) {
	if cfg.PinHash == "" {
		return nil, errors.New("admin pin_hash is not configured")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("admin token_secret is not configured")
	}
	if _, err := bcrypt.Cost([]byte(cfg.PinHash)); err != nil {
		return nil, fmt.Errorf("admin pin_hash is not a bcrypt hash: %w", err)
	}

	return &Authenticator{
		pinHash: []byte(cfg.PinHash),
		secret:  []byte(cfg.TokenSecret),
		ttl:     cfg.TokenTTL,
		now:     time.Now,
	}, nil
}

func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login returns a signed token and its lifetime in seconds.
func (a *Authenticator) Login(pin string) (string, int, error) {
	if pin == "" || bcrypt.CompareHashAndPassword(a.pinHash, []byte(pin)) != nil {
		return "", 0, apperrors.ErrInvalidCredentials
	}

	now := a.now()
	claims := Claims{
		Roles: []string{RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, int(a.ttl.Seconds()), nil
}

func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if !slices.Contains(claims.Roles, RoleAdmin) {
		return nil, apperrors.ErrInvalidToken
	}
	return &claims, nil
}
