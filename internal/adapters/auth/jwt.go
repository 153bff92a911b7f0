package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const issuer = "easyfinance-accounts"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewTokenService creates a token service. The secret must not be empty.
func NewTokenService(secret string, expiresIn time.Duration, baseLogger *zerolog.Logger) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &TokenService{
		secretKey: []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
		log:       baseLogger.With().Str("component", "token_service").Logger(),
	}, nil
}

// Generate signs a token for subject.
func (s *TokenService) Generate(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to sign token")
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.log.Info().Str("subject", subject).Time("expires_at", claims.ExpiresAt.Time).Msg("JWT generated")
	return signed, nil
}

// Parse verifies tokenStr and returns its subject.
func (s *TokenService) Parse(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		s.log.Debug().Err(err).Msg("Rejected token")
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
