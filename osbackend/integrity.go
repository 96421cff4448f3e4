package osbackend

import (
	"crypto/rand"
	"fmt"

	"r2d2/ast"
	"r2d2/token"
)

// linkSectionRodata and linkSectionText are the attribute names that
// place the placeholder-hash and salt statics in the initialized-
// read-only-data and code sections respectively, so the post-compile
// patcher's anchor search (and, in a real host toolchain, the linker)
// can find them. ast.Attribute only ever carries a bare name or a
// parenthesized argument list; a `name = value` attribute is encoded as
// one bare name string, the same escape hatch ast.RawExpr uses for
// array-literal syntax.
const (
	linkSectionRodata = `link_section = ".rodata"`
	linkSectionText   = `link_section = ".text"`
)

// GenerateIntegrityCheck implements spec §4.3's integrity-check
// generator. The returned IntegrityCheck carries the CSPRNG-drawn salt
// and placeholder hash embedded verbatim in the ShatterCondition's setup;
// the post-compile patcher (Patch) is the only other code that ever
// reads those bytes again, via the vector the pipeline driver
// accumulates across a whole pass.
func GenerateIntegrityCheck() (ast.ShatterCondition, ast.IntegrityCheck, error) {
	var check ast.IntegrityCheck
	check.Kind = ast.IntegrityCheckAll
	if _, err := rand.Read(check.PlaceholderHash[:]); err != nil {
		return ast.ShatterCondition{}, ast.IntegrityCheck{}, fmt.Errorf("osbackend: placeholder hash generation: %w", err)
	}
	if _, err := rand.Read(check.Salt[:]); err != nil {
		return ast.ShatterCondition{}, ast.IntegrityCheck{}, fmt.Errorf("osbackend: salt generation: %w", err)
	}

	placeholderName := ast.MintIdentifier()
	saltName := ast.MintIdentifier()
	hashName := ast.MintIdentifier()

	placeholderItem := &ast.StaticItem{
		Name:  placeholderName,
		Type:  "[u8; 64]",
		Value: ast.ByteArrayLiteral(check.PlaceholderHash[:]),
	}
	*placeholderItem.Attrs() = []ast.Attribute{{Name: "no_mangle"}, {Name: linkSectionRodata}}

	// saltItem is declared in the code section: the post-compile patcher
	// searches .text for these exact bytes to confirm the optimizer
	// didn't elide the whole check (spec §4.3 step 2's "anchor").
	saltItem := &ast.StaticItem{
		Name:  saltName,
		Type:  "[u8; 32]",
		Value: ast.ByteArrayLiteral(check.Salt[:]),
	}
	*saltItem.Attrs() = []ast.Attribute{{Name: "no_mangle"}, {Name: linkSectionText}}

	setup := []ast.Stmt{
		&ast.ItemStmt{Item: placeholderItem},
		&ast.ItemStmt{Item: saltItem},
		&ast.LetStmt{
			Name:  hashName,
			Value: callPath("r2d2::integrity::hash_code_section", pathExpr(saltName)),
		},
	}
	checkExpr := &ast.BinaryExpr{
		Left:  pathExpr(hashName),
		Op:    token.NE,
		Right: pathExpr(placeholderName),
	}

	return ast.ShatterCondition{Setup: setup, Check: checkExpr}, check, nil
}
