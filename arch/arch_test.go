package arch

import (
	"strings"
	"testing"
)

func TestPartialInstructionDrawsFromCatalogue(t *testing.T) {
	cat, err := loadCatalogue()
	if err != nil {
		t.Fatalf("loadCatalogue: %v", err)
	}
	encodings := map[string]bool{}
	for _, insn := range cat.Instructions {
		for _, enc := range insn.Encodings {
			raw := make([]byte, len(enc))
			for i, v := range enc {
				raw[i] = byte(v)
			}
			encodings[string(raw)] = true
		}
	}
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		b, err := PartialInstruction()
		if err != nil {
			t.Fatalf("PartialInstruction: %v", err)
		}
		if len(b) == 0 {
			t.Fatal("PartialInstruction returned an empty sequence")
		}
		if !encodings[string(b)] {
			t.Fatalf("PartialInstruction returned % x, which is not a catalogue encoding", b)
		}
		seen[len(b)] = true
	}
}

func TestRandomFallbackLength(t *testing.T) {
	for i := 0; i < 20; i++ {
		b, err := randomFallback()
		if err != nil {
			t.Fatalf("randomFallback: %v", err)
		}
		if len(b) < 32 || len(b) >= 96 {
			t.Fatalf("randomFallback length %d out of [32, 96)", len(b))
		}
	}
}

func TestRabbitHoleVariesAndClobbers(t *testing.T) {
	a, err := RabbitHole()
	if err != nil {
		t.Fatalf("RabbitHole: %v", err)
	}
	b, err := RabbitHole()
	if err != nil {
		t.Fatalf("RabbitHole: %v", err)
	}
	if a.Path != "asm" || b.Path != "asm" {
		t.Fatalf("expected asm! invocations, got %q and %q", a.Path, b.Path)
	}
	if len(a.Tokens) == 0 || len(b.Tokens) == 0 {
		t.Fatal("expected non-empty token streams")
	}
	if a.Tokens[0].Lexeme == b.Tokens[0].Lexeme {
		t.Error("two RabbitHole calls produced byte-identical bodies; expected CSPRNG-drawn variation")
	}
	foundClobber := false
	for _, tok := range a.Tokens {
		if strings.Contains(tok.Lexeme, "clobber_abi") {
			foundClobber = true
		}
	}
	if !foundClobber {
		t.Error("expected RabbitHole body to declare a C-ABI clobber")
	}
}
