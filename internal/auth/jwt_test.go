package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueVerify_RoundTrip(t *testing.T) {
	iss := &Issuer{Secret: secret, Issuer: "recipes"}
	tok, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	uid, err := (&Verifier{Secret: secret, Issuer: "recipes"}).Verify(tok)
	if err != nil || uid != "user-1" {
		t.Fatalf("Verify = %q, %v", uid, err)
	}
}

func TestIssue_EmptyUser(t *testing.T) {
	if _, err := (&Issuer{Secret: secret}).Issue("  "); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestVerify_Failures(t *testing.T) {
	good := &Issuer{Secret: secret, Issuer: "recipes"}
	expired := &Issuer{Secret: secret, Issuer: "recipes", TTL: time.Minute,
		now: func() time.Time { return time.Now().Add(-time.Hour) }}
	otherIssuer := &Issuer{Secret: secret, Issuer: "someone-else"}
	otherSecret := &Issuer{Secret: []byte("another-secret-of-enough-length"), Issuer: "recipes"}

	mustIssue := func(i *Issuer) string {
		tok, err := i.Issue("user-1")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return tok
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	v := &Verifier{Secret: secret, Issuer: "recipes"}
	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrTokenInvalid},
		{"expired", mustIssue(expired), ErrTokenExpired},
		{"wrong issuer", mustIssue(otherIssuer), ErrTokenInvalid},
		{"wrong secret", mustIssue(otherSecret), ErrTokenInvalid},
		{"alg none", none, ErrTokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Verify(tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("Verify err = %v; want %v", err, tc.want)
			}
		})
	}

	// Without an expected issuer any issuer is accepted.
	if _, err := (&Verifier{Secret: secret}).Verify(mustIssue(otherIssuer)); err != nil {
		t.Fatalf("issuer check should be optional: %v", err)
	}
	if _, err := (&Verifier{Secret: secret}).Verify(mustIssue(good)); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
