package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash := HashPassword("s3cret")
	if !strings.Contains(hash, "$") {
		t.Fatalf("hash must carry the salt: %q", hash)
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("correct password must verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	if HashPassword("same") == HashPassword("same") {
		t.Fatalf("two hashes of the same password must differ by salt")
	}
}

func TestCheckPasswordRejectsMalformedHash(t *testing.T) {
	if CheckPassword("x", "no-separator") {
		t.Fatalf("malformed stored hash must not verify")
	}
	if CheckPassword("x", "") {
		t.Fatalf("empty stored hash must not verify")
	}
}
