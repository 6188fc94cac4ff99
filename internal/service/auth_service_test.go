package service

import (
	"errors"
	"testing"
	"time"

	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/proctorhq/examgate-backend/internal/model"
)

func testAuthService(secret string) *AuthService {
	cfg := &config.Config{
		JWTSecret:  secret,
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	return NewAuthService(cfg, nil)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService("test-secret")
	user := &model.User{ID: 42, Email: "taker@example.com"}

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "taker@example.com" {
		t.Errorf("Email = %q, want taker@example.com", claims.Email)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := testAuthService("secret-a").GenerateToken(&model.User{ID: 1})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := testAuthService("secret-b").ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := testAuthService("test-secret")
	svc.cfg.JWTExpiry = -time.Minute

	token, err := svc.GenerateToken(&model.User{ID: 1})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := testAuthService("test-secret").ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}

func TestSessionErrorsAreDistinct(t *testing.T) {
	// The handler layer maps these to different HTTP statuses, so they
	// must never alias each other.
	if errors.Is(ErrSessionNotFound, ErrAlreadyCompleted) {
		t.Fatal("ErrSessionNotFound must not match ErrAlreadyCompleted")
	}
	if errors.Is(ErrResultNotFound, ErrSessionNotFound) {
		t.Fatal("ErrResultNotFound must not match ErrSessionNotFound")
	}
}
