package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("longpassword1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Expected a bcrypt hash, got %q", hash)
	}
	if !CheckPassword(hash, "longpassword1") {
		t.Error("Correct password rejected")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("Wrong password accepted")
	}
	if CheckPassword("", "longpassword1") {
		t.Error("Empty hash accepted")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !NeedsRehash(string(weak)) {
		t.Error("A below-cost hash should need a rehash")
	}

	current, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if NeedsRehash(current) {
		t.Error("A current-cost hash should not need a rehash")
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 {
			t.Fatalf("Expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("Non-digit in code %q", code)
			}
		}
		seen[code] = true
	}
	// 50 draws from a million values collide with negligible probability.
	if len(seen) < 45 {
		t.Errorf("Suspiciously many duplicate codes: %d distinct of 50", len(seen))
	}
}

func TestCheckVerificationCode(t *testing.T) {
	hash, err := HashVerificationCode("123456")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckVerificationCode(hash, "123456") {
		t.Error("Correct code rejected")
	}
	if CheckVerificationCode(hash, "654321") {
		t.Error("Wrong code accepted")
	}

	// Stored values without a bcrypt prefix are legacy plaintext codes.
	if !CheckVerificationCode("123456", "123456") {
		t.Error("Legacy plaintext code rejected")
	}
	if CheckVerificationCode("123456", "654321") {
		t.Error("Wrong legacy code accepted")
	}
}
