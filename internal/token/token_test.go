package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatehq/gatehouse/internal/shared"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret", time.Hour)

	tok, err := issuer.Issue(42, "Ada")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user ID mismatch: got %d want 42", userID)
	}
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret", time.Hour)

	first, err := issuer.Issue(1, "a")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := issuer.Issue(1, "a")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for repeated logins")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("secret", -1*time.Second)

	tok, err := issuer.Issue(1, "u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = issuer.Verify(tok)
	if !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected shared.ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret", time.Hour).Issue(2, "u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewIssuer("wrong-secret", time.Hour).Verify(tok)
	if !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected shared.ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer("k", time.Hour).Verify("not.a.jwt")
	if !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected shared.ErrInvalidToken for malformed token, got %v", err)
	}
}

func TestVerify_RejectsUnsignedAlgorithm(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign with none: %v", err)
	}

	_, err = NewIssuer("k", time.Hour).Verify(unsigned)
	if !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected shared.ErrInvalidToken for alg=none token, got %v", err)
	}
}

func TestVerify_NonNumericSubject(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = NewIssuer("k", time.Hour).Verify(tok)
	if !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected shared.ErrInvalidToken for non-numeric subject, got %v", err)
	}
}
