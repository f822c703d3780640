package security

import (
	"errors"
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Argon2Hasher {
	t.Helper()
	h, err := NewArgon2Hasher(Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2Hasher returned error: %v", err)
	}
	return h
}

func TestHashPasswordAndVerifySuccess(t *testing.T) {
	password := "correct horse battery staple"

	encoded, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		t.Fatalf("unexpected hash format: %q", encoded)
	}
	if parts[0] != argon2Variant {
		t.Fatalf("unexpected variant: %s", parts[0])
	}
	if parts[1] != argon2Version {
		t.Fatalf("unexpected version: %s", parts[1])
	}
	if strings.Contains(encoded, password) {
		t.Fatal("encoded hash contains plaintext")
	}

	ok, err := VerifyPassword(password, encoded)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword returned false for correct password")
	}
}

func TestVerifyPasswordIncorrectPassword(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := h.Verify("Tr0ub4dor&3", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestHashUsesRandomSalt(t *testing.T) {
	h := testHasher(t)

	first, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct encodings for the same password")
	}
}

func TestVerifyUsesEncodedParameters(t *testing.T) {
	cheap := testHasher(t)
	encoded, err := cheap.Hash("rotate-me")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	stronger, err := NewArgon2Hasher(DefaultArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2Hasher returned error: %v", err)
	}
	ok, err := stronger.Verify("rotate-me", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected hash produced with other parameters to verify")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h := testHasher(t)
	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"not-a-hash",
		"bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"argon2id$v=19$m=8192,t=1$c2FsdHNhbHQ$aGFzaA",
		"argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}
	for _, encoded := range cases {
		if ok, err := VerifyPassword("password", encoded); err == nil || ok {
			t.Fatalf("expected error for %q, got ok=%v err=%v", encoded, ok, err)
		}
	}
}

func TestNewArgon2HasherRejectsWeakConfig(t *testing.T) {
	cfg := DefaultArgon2Config()
	cfg.Memory = 1024
	if _, err := NewArgon2Hasher(cfg); err == nil {
		t.Fatal("expected error for low memory cost")
	}

	cfg = DefaultArgon2Config()
	cfg.Iterations = 0
	if _, err := NewArgon2Hasher(cfg); err == nil {
		t.Fatal("expected error for zero iterations")
	}
}

func TestGeneratePrefixedToken(t *testing.T) {
	a, err := GeneratePrefixedToken("verify")
	if err != nil {
		t.Fatalf("GeneratePrefixedToken returned error: %v", err)
	}
	b, err := GeneratePrefixedToken("verify")
	if err != nil {
		t.Fatalf("GeneratePrefixedToken returned error: %v", err)
	}
	if !strings.HasPrefix(a, "verify_") {
		t.Fatalf("missing prefix: %q", a)
	}
	if a == b {
		t.Fatal("expected unique tokens")
	}
	// 32 bytes in unpadded base64url.
	if got := len(strings.TrimPrefix(a, "verify_")); got != 43 {
		t.Fatalf("unexpected token length %d", got)
	}
}
