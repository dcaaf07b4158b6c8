package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerify_ValidToken(t *testing.T) {
	v := NewJWTVerifier("s3cret")
	uid, err := v.Verify(signToken(t, "s3cret", "user-1"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("expected user-1, got %q", uid)
	}
}

func TestVerify_Rejections(t *testing.T) {
	v := NewJWTVerifier("s3cret")

	if _, err := v.Verify(signToken(t, "wrong", "user-1")); err == nil {
		t.Fatalf("wrong secret must fail")
	}
	if _, err := v.Verify("not-a-jwt"); err == nil {
		t.Fatalf("garbage must fail")
	}

	// Missing subject is invalid even when the signature checks out.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(s); err == nil {
		t.Fatalf("token without sub must fail")
	}

	// Expired token.
	tok = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	s, err = tok.SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(s); err == nil {
		t.Fatalf("expired token must fail")
	}
}

func TestExtractToken_Order(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := ExtractToken(r); got != "query-token" {
		t.Fatalf("query token must win, got %q", got)
	}

	r = httptest.NewRequest("GET", "/chats", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := ExtractToken(r); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}

	r = httptest.NewRequest("GET", "/chats", nil)
	r.Header.Set("Authorization", "Basic abc")
	if got := ExtractToken(r); got != "" {
		t.Fatalf("non-bearer header must be ignored, got %q", got)
	}
}
