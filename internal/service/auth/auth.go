// Package auth issues and checks the bearer tokens that gate the report API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/feichai0017/hasty/config"
	"github.com/feichai0017/hasty/pkg/logger"
)

const issuer = "hasty"

var (
	// ErrUnauthorized is returned for bad credentials or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLoginDisabled is returned by Login when no password is configured.
	ErrLoginDisabled = errors.New("login disabled")
)

// Claims 令牌声明
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a signed access token and its expiry.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Service struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	logger   logger.Logger
	now      func() time.Time
}

func NewService(cfg config.AuthConfig, log logger.Logger) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		username: cfg.Username,
		password: cfg.Password,
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		logger:   log,
		now:      time.Now,
	}
}

// Enabled reports whether the gate is active. Without a configured password
// every request is let through.
func (s *Service) Enabled() bool {
	return s.password != ""
}

// Login 校验用户名密码并签发 HS256 令牌
func (s *Service) Login(username, password string) (*Token, error) {
	if !s.Enabled() {
		return nil, ErrLoginDisabled
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		s.logger.Warn("Login rejected", logger.String("username", username))
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("Login succeeded", logger.String("username", username))
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

// Parse 校验令牌并返回声明
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}

// Authorize turns a bearer token into the authorized flag.
func (s *Service) Authorize(token string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	if _, err := s.Parse(token); err != nil {
		return false, err
	}
	return true, nil
}
