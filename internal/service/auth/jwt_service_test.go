package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/mocks"
)

const testSecret = "test-secret-key"

func newTestService(issuer string) (*JWTService, *mocks.MockCache) {
	cache := mocks.NewMockCache()
	return NewJWTService(testSecret, issuer, time.Hour, cache, zap.NewNop()), cache
}

func sign(t *testing.T, claims Claims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestVerify_Success(t *testing.T) {
	// Arrange
	svc, _ := newTestService("smilecrm")
	token, err := svc.GenerateAccessToken("doctor-42")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	doctorID, err := svc.Verify(context.Background(), token)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doctorID != "doctor-42" {
		t.Errorf("expected doctor-42, got %s", doctorID)
	}
}

func TestVerify_Rejects(t *testing.T) {
	svc, _ := newTestService("smilecrm")
	now := time.Now()
	valid := jwt.RegisteredClaims{
		Subject:   "doctor-1",
		Issuer:    "smilecrm",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"
	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, Claims{RegisteredClaims: valid, Type: "access"}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(t, Claims{RegisteredClaims: expired, Type: "access"}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong issuer", sign(t, Claims{RegisteredClaims: otherIssuer, Type: "access"}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"refresh token", sign(t, Claims{RegisteredClaims: valid, Type: "refresh"}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing subject", sign(t, Claims{RegisteredClaims: noSubject, Type: "access"}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"unsigned", sign(t, Claims{RegisteredClaims: valid, Type: "access"}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(context.Background(), tt.token); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestVerify_RevokedToken(t *testing.T) {
	// Arrange
	svc, _ := newTestService("")
	ctx := context.Background()
	token, _ := svc.GenerateAccessToken("doctor-1")
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	if err := svc.RevokeToken(ctx, claims.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_, err = svc.Verify(ctx, token)

	// Assert
	if !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestVerify_CacheOutageDoesNotBlock(t *testing.T) {
	svc, cache := newTestService("")
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("redis down")
	}
	token, _ := svc.GenerateAccessToken("doctor-1")

	if _, err := svc.Verify(context.Background(), token); err != nil {
		t.Errorf("expected token accepted, got %v", err)
	}
}
