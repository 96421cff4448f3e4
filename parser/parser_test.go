package parser

import (
	"testing"

	"r2d2/ast"
	"r2d2/lexer"
)

func parseSource(t *testing.T, src string) *ast.File {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("Scan(%q) error: %v", src, err)
	}
	file, errs := Make(toks).Parse()
	if len(errs) > 0 {
		t.Fatalf("Parse(%q) errors: %v", src, errs)
	}
	return file
}

func TestParseFuncItem(t *testing.T) {
	file := parseSource(t, `fn add(a: i32, b: i32) -> i32 { a + b }`)
	if len(file.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(file.Items))
	}
	fn, ok := file.Items[0].(*ast.FuncItem)
	if !ok {
		t.Fatalf("item is %T, want *ast.FuncItem", file.Items[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 || fn.ReturnType != "i32" {
		t.Errorf("got %+v", fn)
	}
	if fn.Body.Tail == nil {
		t.Errorf("expected function body tail expression")
	}
}

func TestParseLetAndIf(t *testing.T) {
	file := parseSource(t, `fn f() { let x = 1; if x == 1 { return x; } else { return 0; } }`)
	fn := file.Items[0].(*ast.FuncItem)
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("got %d stmts, want 2", len(fn.Body.Stmts))
	}
	if _, ok := fn.Body.Stmts[0].(*ast.LetStmt); !ok {
		t.Errorf("stmt 0 is %T, want *ast.LetStmt", fn.Body.Stmts[0])
	}
	exprStmt, ok := fn.Body.Stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("stmt 1 is %T, want *ast.ExprStmt", fn.Body.Stmts[1])
	}
	if _, ok := exprStmt.Expr.(*ast.IfExpr); !ok {
		t.Errorf("expr is %T, want *ast.IfExpr", exprStmt.Expr)
	}
}

func TestParseMacroInvocation(t *testing.T) {
	file := parseSource(t, `fn f() { println!("hello {}", 1); }`)
	fn := file.Items[0].(*ast.FuncItem)
	exprStmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	mac, ok := exprStmt.Expr.(*ast.MacroInvocationExpr)
	if !ok {
		t.Fatalf("expr is %T, want *ast.MacroInvocationExpr", exprStmt.Expr)
	}
	if mac.Path != "println" {
		t.Errorf("got path %q, want println", mac.Path)
	}
	args, err := ParseFormatArgs(mac.Tokens)
	if err != nil {
		t.Fatalf("ParseFormatArgs: %v", err)
	}
	if args.Template != "hello {}" || len(args.Positional) != 1 {
		t.Errorf("got %+v", args)
	}
}

func TestParseFormatArgsRejectsPositionalAfterNamed(t *testing.T) {
	file := parseSource(t, `fn f() { format!("{} is {n:.p$}", x=1, b); }`)
	fn := file.Items[0].(*ast.FuncItem)
	exprStmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	mac := exprStmt.Expr.(*ast.MacroInvocationExpr)
	if _, err := ParseFormatArgs(mac.Tokens); err == nil {
		t.Fatalf("ParseFormatArgs: expected error for positional argument after a named one, got none")
	}
}

func TestParseAssertEq(t *testing.T) {
	file := parseSource(t, `fn f() { assert_eq!(a, b, "mismatch"); }`)
	fn := file.Items[0].(*ast.FuncItem)
	exprStmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	mac := exprStmt.Expr.(*ast.MacroInvocationExpr)
	args, err := ParseAssertArgs("assert_eq", mac.Tokens)
	if err != nil {
		t.Fatalf("ParseAssertArgs: %v", err)
	}
	if args.Kind != ast.AssertEq || args.Message == nil || args.Message.Template != "mismatch" {
		t.Errorf("got %+v", args)
	}
}

func TestParseLoopForms(t *testing.T) {
	file := parseSource(t, `fn f() {
		loop { break; }
		while true { continue; }
		for x in y { x; }
	}`)
	fn := file.Items[0].(*ast.FuncItem)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("got %d stmts, want 3", len(fn.Body.Stmts))
	}
	kinds := []ast.LoopKind{ast.LoopBare, ast.LoopWhile, ast.LoopFor}
	for i, k := range kinds {
		stmt := fn.Body.Stmts[i].(*ast.ExprStmt)
		loopExpr, ok := stmt.Expr.(*ast.LoopExpr)
		if !ok {
			t.Fatalf("stmt %d is %T, want *ast.LoopExpr", i, stmt.Expr)
		}
		if loopExpr.Kind != k {
			t.Errorf("stmt %d kind = %v, want %v", i, loopExpr.Kind, k)
		}
	}
}

func TestParseAttributes(t *testing.T) {
	file := parseSource(t, `#[shuffle]
fn f() { let x = 1; }`)
	fn := file.Items[0].(*ast.FuncItem)
	if !ast.HasAttr(fn, "shuffle") {
		t.Errorf("expected fn to carry #[shuffle]")
	}
}

func TestParseUnsafeBlockAndReference(t *testing.T) {
	file := parseSource(t, `fn f() { unsafe { let x = &mut y; } }`)
	fn := file.Items[0].(*ast.FuncItem)
	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	unsafeBlock, ok := stmt.Expr.(*ast.UnsafeBlockExpr)
	if !ok {
		t.Fatalf("expr is %T, want *ast.UnsafeBlockExpr", stmt.Expr)
	}
	let := unsafeBlock.Body.Stmts[0].(*ast.LetStmt)
	ref, ok := let.Value.(*ast.ReferenceExpr)
	if !ok || !ref.Mutable {
		t.Errorf("got %+v, want a mutable reference", let.Value)
	}
}

func TestParseImplForTrait(t *testing.T) {
	file := parseSource(t, `impl Greeter for Widget { fn greet() { } }`)
	impl := file.Items[0].(*ast.ImplItem)
	if impl.Trait != "Greeter" || impl.Type != "Widget" {
		t.Errorf("got %+v", impl)
	}
}
