package ast

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MintIdentifier returns a fresh, CSPRNG-derived identifier of the form
// `var_` followed by 128 random bits as 32 lowercase hex characters,
// safe to splice into generated code without colliding with anything a
// human author would plausibly have written. Every synthetic name in
// the core (the string-encryption pass's key/nonce/ciphertext/plaintext
// bindings, the condition generators' locals and statics) goes through
// this single minting point so the naming convention stays consistent.
func MintIdentifier() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("ast: MintIdentifier: %v", err))
	}
	return "var_" + hex.EncodeToString(buf)
}
