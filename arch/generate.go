package arch

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"r2d2/ast"
	"r2d2/token"
)

// ErrCatalogueUnusable names the "catalogue offers nothing to draw from"
// condition. No function in this package returns it: PartialInstruction
// handles a missing, malformed or empty catalogue by falling back to
// random bytes instead of reporting an error.
var ErrCatalogueUnusable = fmt.Errorf("arch: catalogue has no usable instructions")

// randomUint draws a uniform value in [0, n) from crypto/rand. n must be
// positive; this is only ever called with a known-positive bound.
func randomUint(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// PartialInstruction returns a byte sequence chosen uniformly at random
// from the embedded catalogue's encodings, drawn in two stages (pick an
// instruction, then pick one of its encodings) so every encoding —
// rather than every instruction — has equal weight is explicitly not
// guaranteed, matching the catalogue's natural "list of instructions,
// each a list of encodings" shape. On a missing, malformed, or empty
// catalogue it falls back to the §7 recovery rule: uniformly random
// bytes of uniformly random length in [32, 96).
func PartialInstruction() ([]byte, error) {
	cat, err := loadCatalogue()
	if err != nil || len(cat.Instructions) == 0 {
		return randomFallback()
	}
	idx, err := randomUint(len(cat.Instructions))
	if err != nil {
		return randomFallback()
	}
	insn := cat.Instructions[idx]
	if len(insn.Encodings) == 0 {
		return randomFallback()
	}
	eidx, err := randomUint(len(insn.Encodings))
	if err != nil {
		return randomFallback()
	}
	enc := insn.Encodings[eidx]
	out := make([]byte, len(enc))
	for i, b := range enc {
		if b < 0 || b > 255 {
			return randomFallback()
		}
		out[i] = byte(b)
	}
	if len(out) == 0 {
		return randomFallback()
	}
	return out, nil
}

// randomFallback implements the §7 "catalogue missing or malformed"
// recovery: random bytes of uniformly random length in [32, 96).
func randomFallback() ([]byte, error) {
	n, err := randomUint(96 - 32)
	if err != nil {
		return nil, err
	}
	length := 32 + n
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// calleeSaved and volatile are the amd64 System V register pools the
// rabbit hole permutes to compute its wild jump target; it never needs
// more than this fixed pool since the clobber list covers all of them.
var calleeSaved = []string{"rbx", "r12", "r13", "r14", "r15"}
var volatile = []string{"rax", "rcx", "rdx", "rsi", "rdi", "r8", "r9", "r10", "r11"}

func permuteStrings(in []string) ([]string, error) {
	out := append([]string(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomUint(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// RabbitHole builds the inline-assembly block spec §4.2(b) describes: it
// permutes the callee-saved and volatile register pools, computes a
// target address from one CSPRNG-drawn immediate folded through those
// registers, and performs an indirect jump to it. Reaching this block at
// runtime is always a crash by construction — the computed address is
// never a valid code location. Inline assembly has no dedicated AST node
// (see ast package doc); this returns an ordinary `asm!(...)` macro
// invocation whose raw token stream encodes the body and the C-ABI
// clobber list, so the printer needs no special case for it.
func RabbitHole() (*ast.MacroInvocationExpr, error) {
	regs, err := permuteStrings(append(append([]string{}, calleeSaved...), volatile...))
	if err != nil {
		return nil, err
	}
	imm, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		`"mov %[1]s, %[2]s", "xor %[3]s, %[4]s", "add %[1]s, %[3]s", "jmp %[1]s"`,
		regs[0], imm.String(), regs[1], regs[2],
	)
	clobber := fmt.Sprintf(`out(%q) _, out(%q) _, out(%q) _, clobber_abi("C")`, regs[0], regs[1], regs[2])

	toks := []token.Token{
		token.CreateLiteral(token.STRING, body, body, 0, 0),
		token.Create(token.COMMA, 0, 0),
		token.CreateLiteral(token.IDENTIFIER, clobber, clobber, 0, 0),
	}
	return &ast.MacroInvocationExpr{Path: "asm", Tokens: toks}, nil
}

// StaticRabbitHole builds the shatter pass's "append shatter branch"
// body (spec §4.6): a block holding a single inline-assembly statement
// that declares PartialInstruction's bytes with a `.byte` pseudo-op and
// a C-ABI clobber. It does not wrap itself in an unsafe block — spec
// §4.6's unsafe-block tracking means the caller only adds one when not
// already inside one, so that decision belongs to the shatter pass, not
// here. Unlike RabbitHole, reaching this block is never itself fatal —
// the shatter pass only reaches it when its guarding condition is true,
// at which point the partial instruction bytes are never actually
// executed as code; they exist purely to poison linear-sweep
// disassembly of the surrounding function.
func StaticRabbitHole() (*ast.BlockExpr, error) {
	raw, err := PartialInstruction()
	if err != nil {
		return nil, err
	}
	hexBytes := make([]string, len(raw))
	for i, b := range raw {
		hexBytes[i] = fmt.Sprintf("0x%02x", b)
	}
	body := fmt.Sprintf(`".byte %s"`, strings.Join(hexBytes, ", "))
	toks := []token.Token{
		token.CreateLiteral(token.STRING, body, body, 0, 0),
		token.Create(token.COMMA, 0, 0),
		token.CreateLiteral(token.IDENTIFIER, `clobber_abi("C")`, `clobber_abi("C")`, 0, 0),
	}
	asm := &ast.MacroInvocationExpr{Path: "asm", Tokens: toks}
	return &ast.BlockExpr{Stmts: []ast.Stmt{ast.ToStmt(asm, true)}}, nil
}
