package credentials

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	Iterations = 10000
	HashSize   = 64
)

// HashPassword hashes plaintext with a fresh random salt and returns both as
// lowercase hex.
func HashPassword(plaintext string) (salt, hash string, err error) {
	raw := make([]byte, SaltSize)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	return salt, derive(plaintext, raw), nil
}

// VerifyPassword reports whether attempt hashes to expectedHash under salt.
// A malformed salt never verifies.
func VerifyPassword(attempt, salt, expectedHash string) bool {
	raw, err := hex.DecodeString(salt)
	if err != nil || len(raw) == 0 {
		return false
	}
	got := derive(attempt, raw)
	want := strings.ToLower(expectedHash)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func derive(plaintext string, salt []byte) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(plaintext), salt, Iterations, HashSize, sha512.New))
}
