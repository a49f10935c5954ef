package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(secret, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	c := newTestCodec(t, "unit-secret")

	raw, err := c.Issue("2f4d9c1e-1111-4222-8333-abcdefabcdef", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	subject, err := c.Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if subject != "2f4d9c1e-1111-4222-8333-abcdefabcdef" {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	c := newTestCodec(t, "unit-secret")

	raw, err := c.Issue("user-1", -time.Second)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Validate(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := newTestCodec(t, "secret-a")
	verifier := newTestCodec(t, "secret-b")

	raw, err := issuer.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong secret, got %v", err)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	c := newTestCodec(t, "unit-secret")

	for _, raw := range []string{
		"",
		"not.a.valid-token",
		"onlyonesegment",
		"a.b",
		"a.b.c.d",
	} {
		if _, err := c.Validate(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Validate(%q): expected ErrInvalid, got %v", raw, err)
		}
	}
}

func TestValidateExpiryIsStrict(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	c, err := NewCodec("unit-secret", 15*time.Minute, 24*time.Hour,
		WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	raw, err := c.Issue("user-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issued.Add(59 * time.Second)
	if _, err := c.Validate(raw); err != nil {
		t.Fatalf("token should still be valid just before expiry: %v", err)
	}

	// now == exp is already invalid: validity requires now < exp.
	clock = issued.Add(time.Minute)
	if _, err := c.Validate(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid at exact expiry, got %v", err)
	}
}

func TestAccessAndRefreshShareValidatePath(t *testing.T) {
	c := newTestCodec(t, "unit-secret")

	access, err := c.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, err := c.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	for _, raw := range []string{access, refresh} {
		subject, err := c.Validate(raw)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if subject != "user-1" {
			t.Fatalf("unexpected subject: %s", subject)
		}
	}
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec("", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewCodec("secret", 0, time.Hour); err == nil {
		t.Fatal("expected error for zero access TTL")
	}
	if _, err := NewCodec("secret", time.Minute, -time.Hour); err == nil {
		t.Fatal("expected error for negative refresh TTL")
	}
}
