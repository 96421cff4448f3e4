package passes

import (
	"testing"

	"r2d2/ast"
	"r2d2/token"
)

// stringTemplateTokens builds the single-STRING-literal token stream a
// trivial `println!("...")` invocation's Tokens field holds before any
// pass decomposes it.
func stringTemplateTokens(template string) []token.Token {
	return []token.Token{token.CreateLiteral(token.STRING, template, template, 0, 0)}
}

func countRawBlocks(t *testing.T, v ast.Expr) int {
	t.Helper()
	if _, ok := v.(*ast.BlockExpr); ok {
		return 1
	}
	if ref, ok := v.(*ast.ReferenceExpr); ok {
		return countRawBlocks(t, ref.Operand)
	}
	return 0
}

func TestEncryptRewritesOwnedLetStringLiteral(t *testing.T) {
	let := &ast.LetStmt{Name: "greeting", Value: &ast.Literal{Kind: ast.StringLit, Value: "hello"}}
	block := &ast.BlockExpr{Stmts: []ast.Stmt{let}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Encrypt(file); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	decrypted, ok := let.Value.(*ast.BlockExpr)
	if !ok {
		t.Fatalf("let value was not replaced with a decrypt block, got %T", let.Value)
	}
	if len(decrypted.Stmts) != 4 {
		t.Fatalf("decrypt block has %d statements, want 4 (key, nonce, ciphertext, plaintext)", len(decrypted.Stmts))
	}
	if _, ok := decrypted.Tail.(*ast.MethodCallExpr); !ok {
		t.Fatalf("string literal's decrypt tail is %T, want a String::from_utf8(...).unwrap() call", decrypted.Tail)
	}
}

func TestEncryptSkipsReferenceTypedLet(t *testing.T) {
	let := &ast.LetStmt{Name: "s", Type: "&str", Value: &ast.Literal{Kind: ast.StringLit, Value: "hello"}}
	block := &ast.BlockExpr{Stmts: []ast.Stmt{let}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Encrypt(file); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	lit, ok := let.Value.(*ast.Literal)
	if !ok || lit.Value != "hello" {
		t.Fatalf("reference-typed let was rewritten, want it left alone, got %#v", let.Value)
	}
}

func TestEncryptSkipsConstItems(t *testing.T) {
	constItem := &ast.ConstItem{Name: "GREETING", Value: &ast.Literal{Kind: ast.StringLit, Value: "hi"}}
	file := &ast.File{Items: []ast.Item{constItem}}

	if err := Encrypt(file); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	lit, ok := constItem.Value.(*ast.Literal)
	if !ok || lit.Value != "hi" {
		t.Fatalf("const item value was rewritten, want it left alone, got %#v", constItem.Value)
	}
}

func TestEncryptProtectsDirectCallArguments(t *testing.T) {
	call := &ast.CallExpr{
		Callee: &ast.PathExpr{Segments: []string{"log"}},
		Args:   []ast.Expr{&ast.Literal{Kind: ast.StringLit, Value: "unreachable"}},
	}
	block := &ast.BlockExpr{Stmts: []ast.Stmt{ast.ToStmt(call, true)}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Encrypt(file); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	lit, ok := call.Args[0].(*ast.Literal)
	if !ok || lit.Value != "unreachable" {
		t.Fatalf("direct call argument literal was rewritten, want it protected, got %#v", call.Args[0])
	}
}

func TestEncryptRewritesTrivialFormatMacroTemplate(t *testing.T) {
	mac := &ast.MacroInvocationExpr{Path: "println", Tokens: stringTemplateTokens("boot ok")}
	block := &ast.BlockExpr{Stmts: []ast.Stmt{ast.ToStmt(mac, true)}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Encrypt(file); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if mac.Format == nil {
		t.Fatalf("macro was not decomposed into Format")
	}
	if mac.Format.Template != "{}" {
		t.Fatalf("trivial format template not rewritten to {}, got %q", mac.Format.Template)
	}
	if len(mac.Format.Positional) != 1 {
		t.Fatalf("expected exactly one positional arg carrying the encrypted literal, got %d", len(mac.Format.Positional))
	}
	if countRawBlocks(t, mac.Format.Positional[0]) != 1 {
		t.Fatalf("encrypted template argument is not a decrypt block: %#v", mac.Format.Positional[0])
	}
}
