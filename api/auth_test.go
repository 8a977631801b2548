package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestBearerTokenSuccess(t *testing.T) {
	token, err := bearerToken("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenMissing(t *testing.T) {
	if _, err := bearerToken(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenBadScheme(t *testing.T) {
	if _, err := bearerToken("Basic abc"); err != errBadAuthorization {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestLocalAuthHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	auth := NewLocalAuth(secret)
	userID, err := auth.UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestLocalAuthRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	auth := NewLocalAuth(secret)
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestLocalAuthRejectsWrongSecret(t *testing.T) {
	signed := signHS256(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	auth := NewLocalAuth([]byte("test-secret"))
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected token signed with wrong secret to be rejected")
	}
}

func TestLocalAuthRejectsMissingSub(t *testing.T) {
	secret := []byte("test-secret")
	signed := signHS256(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	auth := NewLocalAuth(secret)
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected token without sub to be rejected")
	}
}

func TestLocalAuthChecksAudienceAndIssuer(t *testing.T) {
	secret := []byte("test-secret")
	auth := NewLocalAuth(secret)
	auth.audience = "api://board"
	auth.issuer = "https://issuer/"

	signed := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://board",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrongAud := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://other",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})
	if _, err := auth.UserIDFromAuthHeader("Bearer " + wrongAud); err == nil {
		t.Fatal("expected audience mismatch to be rejected")
	}
}

func TestNoAuthAlwaysLocalUser(t *testing.T) {
	userID, err := NoAuth{}.UserIDFromAuthHeader("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "local" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}
