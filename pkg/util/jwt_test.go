package util

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTRoundTripCarriesOwner(t *testing.T) {
	token, err := GenerateJWT("user-42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	owner, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if owner != "user-42" {
		t.Fatalf("expected owner user-42, got %q", owner)
	}
}

func TestParseJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateJWT("user-42", "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatalf("expected signature error")
	}

	expired, err := GenerateJWT("user-42", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	if _, err := ParseJWT(expired, "secret"); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/tasks/u1", nil)
	if got := ExtractToken(req); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
	req.Header.Set("Authorization", "Bearer abc.def")
	if got := ExtractToken(req); got != "abc.def" {
		t.Fatalf("expected abc.def, got %q", got)
	}
	req.Header.Set("Authorization", "Basic abc")
	if got := ExtractToken(req); got != "" {
		t.Fatalf("expected non-bearer scheme to be ignored, got %q", got)
	}
}
