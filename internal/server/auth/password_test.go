package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_VerifiesAndIsSalted(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if h1 == "s3cret!" {
		t.Fatalf("hash equals plaintext")
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ")
	}
	if !CheckPassword("s3cret!", h1) || !CheckPassword("s3cret!", h2) {
		t.Fatalf("hash does not verify its password")
	}
	if CheckPassword("S3cret!", h1) {
		t.Fatalf("wrong password verified")
	}

	cost, err := bcrypt.Cost([]byte(h1))
	if err != nil || cost != PasswordCost {
		t.Fatalf("cost = %d (%v), want %d", cost, err, PasswordCost)
	}
}

func TestHashPassword_Rejects(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword(""); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("empty password: expected ErrValidation, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("long password: expected ErrValidation, got %v", err)
	}
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	t.Parallel()

	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Fatalf("garbage hash must not verify")
	}
	if CheckPassword("", "") {
		t.Fatalf("empty hash must not verify")
	}
}
