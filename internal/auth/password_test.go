package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("expected the hash to differ from the password")
	}

	if !VerifyPassword("s3cret", hash) {
		t.Error("expected the correct password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("expected a wrong password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	h2, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if h1 == h2 {
		t.Error("expected two hashes of the same password to differ")
	}
}
