package util

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var testArgon2Params = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := NewPasswordHasher(testArgon2Params)
	hash, err := hasher.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}
	if !hasher.Verify("s3cret-pass", hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if hasher.Verify("wrong-pass", hash) {
		t.Fatalf("expected password verification to fail for wrong password")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := NewPasswordHasher(testArgon2Params).Hash(""); err == nil {
		t.Fatalf("expected error when password empty")
	}
}

func TestVerifyLegacyBcryptHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt returned error: %v", err)
	}
	hasher := NewPasswordHasher(testArgon2Params)
	if !IsLegacyHash(string(legacy)) {
		t.Fatalf("expected bcrypt hash to be flagged legacy")
	}
	if !hasher.Verify("secret1", string(legacy)) {
		t.Fatalf("expected legacy hash to verify")
	}
	if hasher.Verify("secret2", string(legacy)) {
		t.Fatalf("expected legacy hash to reject wrong password")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(testArgon2Params)
	for _, encoded := range []string{"", "plaintext", "$argon2id$v=19$broken", "$argon2id$v=18$m=1,t=1,p=1$AA$AA"} {
		if hasher.Verify("secret1", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
	}
}
