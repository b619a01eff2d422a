// Package credentials implements password hashing and per-user content
// encryption.
//
// Passwords are hashed with PBKDF2-HMAC-SHA512 (10000 iterations, 64 byte
// output, 16 byte random salt, all hex encoded) so records written by earlier
// versions of the backend keep verifying.
//
// File contents are sealed with AES-256-GCM. The content key of a user is
// their stored password hash; every message derives its own AES key from it
// with HKDF-SHA256 over a fresh random salt. The envelope is
//
//	xv1:base64(salt[16] | nonce[12] | ciphertext | tag[16])
//
// Anyone who can read a profile record can decrypt the files of that user.
package credentials
