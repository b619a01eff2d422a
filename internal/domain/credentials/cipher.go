package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/yasakei/xos/internal/shared/errs"
)

// Envelope layout
const (
	Prefix    = "xv1:"
	saltLen   = 16
	nonceLen  = 12
	keyLen    = 32
	keyInfo   = "xos-vfs content v1"
	minSealed = saltLen + nonceLen + 16
)

// Key is the content key material of a user
type Key string

// KeyHolder is anything carrying a stored password hash, such as a profile
type KeyHolder interface {
	StoredPasswordHash() string
}

// DeriveContentKey returns the content key of holder
func DeriveContentKey(holder KeyHolder) Key {
	if holder == nil {
		return ""
	}
	return Key(holder.StoredPasswordHash())
}

// Encrypt seals plaintext under key
func Encrypt(plaintext []byte, key Key) (string, error) {
	if key == "" {
		return "", errs.New(errs.Unauthorized, "credentials.encrypt", "no decryption key available")
	}

	buf := make([]byte, saltLen+nonceLen, saltLen+nonceLen+len(plaintext)+16)
	if _, err := rand.Read(buf); err != nil {
		return "", errs.Wrap(errs.IOError, "credentials.encrypt", "failed to encrypt content", err)
	}
	salt, nonce := buf[:saltLen], buf[saltLen:]

	aead, err := newAEAD(key, salt)
	if err != nil {
		return "", errs.Wrap(errs.IOError, "credentials.encrypt", "failed to encrypt content", err)
	}

	sealed := aead.Seal(buf, nonce, plaintext, nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt. Malformed input, a foreign
// key and tampering all fail with DecryptionFailed.
func Decrypt(ciphertext string, key Key) ([]byte, error) {
	if key == "" {
		return nil, errs.New(errs.Unauthorized, "credentials.decrypt", "no decryption key available")
	}

	encoded, ok := strings.CutPrefix(strings.TrimSpace(ciphertext), Prefix)
	if !ok {
		return nil, errs.New(errs.DecryptionFailed, "credentials.decrypt", "failed to decrypt file")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < minSealed {
		return nil, errs.Wrap(errs.DecryptionFailed, "credentials.decrypt", "failed to decrypt file", err)
	}

	salt, nonce, sealed := raw[:saltLen], raw[saltLen:saltLen+nonceLen], raw[saltLen+nonceLen:]
	aead, err := newAEAD(key, salt)
	if err != nil {
		return nil, errs.Wrap(errs.DecryptionFailed, "credentials.decrypt", "failed to decrypt file", err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errs.Wrap(errs.DecryptionFailed, "credentials.decrypt", "failed to decrypt file", err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newAEAD(key Key, salt []byte) (cipher.AEAD, error) {
	aesKey := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(key), salt, []byte(keyInfo)), aesKey); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
