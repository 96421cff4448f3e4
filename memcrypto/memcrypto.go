// Package memcrypto implements the memory-encryption record spec §3
// describes and the authenticated cipher the string-literal encryption
// pass (and the code it emits) rely on: XChaCha20-Poly1305, the same
// AEAD original_source/src/crypto.rs builds its MemoryEncryptionCtx
// around. The core treats the cipher primitive itself as an external
// collaborator (spec §1 scope); this package is the thin, generic-free
// Go shape of that contract — a fixed 256-bit key, 192-bit nonce, and
// authenticated ciphertext — used both to decide emitted byte-array
// literals at obfuscation time and as the target-runtime helper's
// expected layout (spec §6 "Runtime helper contract").
package memcrypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Record is the memory-encryption record from spec §3: a freshly
// generated key and nonce plus the resulting ciphertext. Every Record a
// single compilation produces carries its own key and nonce; nonces are
// never reused across Records, satisfying testable property 5.
type Record struct {
	Key        [chacha20poly1305.KeySize]byte
	Nonce      [chacha20poly1305.NonceSizeX]byte
	Ciphertext []byte
}

// Encrypt draws a fresh key and nonce from crypto/rand and seals
// plaintext with XChaCha20-Poly1305, returning the Record the
// string-literal encryption pass embeds verbatim as byte-array literals
// in the emitted source. Ciphertext length is plaintext length plus the
// cipher's authentication-tag overhead, matching spec §3's invariant.
func Encrypt(plaintext []byte) (Record, error) {
	var rec Record
	if _, err := rand.Read(rec.Key[:]); err != nil {
		return Record{}, fmt.Errorf("memcrypto: key generation: %w", err)
	}
	if _, err := rand.Read(rec.Nonce[:]); err != nil {
		return Record{}, fmt.Errorf("memcrypto: nonce generation: %w", err)
	}
	aead, err := chacha20poly1305.NewX(rec.Key[:])
	if err != nil {
		return Record{}, fmt.Errorf("memcrypto: cipher init: %w", err)
	}
	rec.Ciphertext = aead.Seal(nil, rec.Nonce[:], plaintext, nil)
	return rec, nil
}

// Decrypt is the inverse of Encrypt: the target runtime's decryption
// helper (spec §6) calls the equivalent of this over the embedded
// key/nonce/ciphertext literals. A tag mismatch is the "runtime
// cryptographic failure" spec §7 says panics in generated code; here, in
// the obfuscator's own Go code, it is an ordinary error since this
// package is exercised directly by round-trip tests (testable property
// 7), not by the compiled target binary.
func Decrypt(rec Record) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(rec.Key[:])
	if err != nil {
		return nil, fmt.Errorf("memcrypto: cipher init: %w", err)
	}
	plaintext, err := aead.Open(nil, rec.Nonce[:], rec.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("memcrypto: decryption failed: %w", err)
	}
	return plaintext, nil
}
