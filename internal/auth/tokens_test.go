package auth

import (
	"testing"
	"time"
)

func newTestTokens(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	tokens, err := NewTokenService("test-secret", ttl)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return tokens
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)

	signed, err := tokens.Issue("a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	subject, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "a@b.c" {
		t.Fatalf("subject = %q, want %q", subject, "a@b.c")
	}
}

func TestTokenExpired(t *testing.T) {
	tokens := newTestTokens(t, -time.Minute)

	signed, err := tokens.Issue("a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tokens.Verify(signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenMalformed(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := tokens.Verify(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	signed, err := tokens.Issue("a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewTokenService("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	if _, err := other.Verify(signed); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestTokenEmptySubject(t *testing.T) {
	tokens := newTestTokens(t, time.Hour)
	if _, err := tokens.Issue(""); err == nil {
		t.Fatal("expected empty subject to be rejected")
	}
}
