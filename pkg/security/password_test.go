package security_test

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password1", testPasswordConfig)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	ok, err := security.VerifyPassword("very-secure-password1", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword failed for the correct password ok=%v err=%v", ok, err)
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil || ok {
		t.Fatalf("VerifyPassword accepted the wrong password ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", "$bcrypt$v=19$m=1,t=1,p=1$a$b"} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("password123", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if security.NeedsRehash(hash, testPasswordConfig) {
		t.Fatalf("hash with current params should not need rehash")
	}
	stronger := testPasswordConfig
	stronger.ArgonTime = 3
	if !security.NeedsRehash(hash, stronger) {
		t.Fatalf("hash with weaker time cost should need rehash")
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"short1":       false,
		"allletters":   false,
		"1234567890":   false,
		"letters12345": true,
	}
	for password, ok := range cases {
		err := security.CheckPasswordPolicy(password)
		if (err == nil) != ok {
			t.Fatalf("policy(%q) err=%v, want ok=%v", password, err, ok)
		}
	}
}
