package memcrypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("Hello, world!")
	rec, err := Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(rec.Ciphertext) <= len(plaintext) {
		t.Fatalf("ciphertext length %d should exceed plaintext length %d (auth tag overhead)", len(rec.Ciphertext), len(plaintext))
	}
	got, err := Decrypt(rec)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("Decrypt(Encrypt(%q)) = %q", plaintext, got)
	}
}

func TestEncryptNoncesDistinct(t *testing.T) {
	seen := map[[24]byte]bool{}
	for i := 0; i < 64; i++ {
		rec, err := Encrypt([]byte("x"))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if seen[rec.Nonce] {
			t.Fatal("Encrypt produced a repeated nonce across calls")
		}
		seen[rec.Nonce] = true
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	rec, err := Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	rec.Ciphertext[0] ^= 0xFF
	if _, err := Decrypt(rec); err == nil {
		t.Fatal("expected Decrypt to fail on a tampered ciphertext")
	}
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	rec, err := Encrypt(nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(rec)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty plaintext, got %q", got)
	}
}
