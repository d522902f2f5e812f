package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/ports"
)

var (
	ErrTokenRevoked   = errors.New("token revoked")
	ErrWrongTokenType = errors.New("not an access token")
)

// Claims represents the JWT claims issued by the CRM to doctors.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Type string `json:"type"` // "access" or "refresh"
}

// JWTService validates doctor tokens and keeps a revocation list in the cache.
type JWTService struct {
	secret         string
	issuer         string
	accessDuration time.Duration
	cache          ports.Cache
	log            *zap.Logger
}

// NewJWTService creates a new JWTService instance. An empty issuer skips the
// iss check.
func NewJWTService(secret, issuer string, accessDuration time.Duration, cache ports.Cache, log *zap.Logger) *JWTService {
	log.Info("JWT service initialized",
		zap.String("issuer", issuer),
		zap.Duration("access_duration", accessDuration),
	)

	return &JWTService{
		secret:         secret,
		issuer:         issuer,
		accessDuration: accessDuration,
		cache:          cache,
		log:            log,
	}
}

// GenerateAccessToken signs an access token for doctorID. Used by tooling
// and tests; production tokens come from the CRM.
func (s *JWTService) GenerateAccessToken(doctorID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Role: "doctor",
		Type: "access",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT token string, returning the claims
// if the token is valid.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	}, opts...)
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Verify implements ports.TokenVerifier.
func (s *JWTService) Verify(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Type != "" && claims.Type != "access" {
		return "", ErrWrongTokenType
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("invalid token: missing subject")
	}
	if claims.ID != "" && s.IsTokenRevoked(ctx, claims.ID) {
		return "", ErrTokenRevoked
	}
	return claims.Subject, nil
}

// RevokeToken blacklists a token ID until it would have expired.
func (s *JWTService) RevokeToken(ctx context.Context, tokenID string) error {
	if err := s.cache.Set(ctx, revokedKey(tokenID), "revoked", s.accessDuration); err != nil {
		s.log.Error("failed to revoke token",
			zap.String("token_id", tokenID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.log.Info("token revoked", zap.String("token_id", tokenID))
	return nil
}

func (s *JWTService) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	val, err := s.cache.Get(ctx, revokedKey(tokenID))
	if err != nil {
		// A cache outage must not lock doctors out.
		return false
	}
	return val == "revoked"
}

func revokedKey(tokenID string) string {
	return "revoked_token:" + tokenID
}
