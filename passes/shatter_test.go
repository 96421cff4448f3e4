package passes

import (
	"testing"

	"r2d2/ast"
	"r2d2/token"
)

func exprStmtBlock(stmts ...ast.Stmt) *ast.BlockExpr {
	return &ast.BlockExpr{Stmts: stmts}
}

func TestShatterAppendsBranchAfterLetStatement(t *testing.T) {
	let := &ast.LetStmt{Name: "x", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	block := exprStmtBlock(let)
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}

	if len(block.Stmts) < 2 {
		t.Fatalf("expected at least the original let plus an injected branch, got %d statements", len(block.Stmts))
	}
	if block.Stmts[0] != ast.Stmt(let) {
		t.Fatalf("original let statement was not preserved first")
	}
	found := false
	for _, s := range block.Stmts[1:] {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			continue
		}
		if _, ok := es.Expr.(*ast.IfExpr); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("no injected `if` branch found after the let statement")
	}
}

func TestShatterLeavesTerminalMacroUntouched(t *testing.T) {
	mac := &ast.MacroInvocationExpr{Path: "panic", Tokens: stringTemplateTokens("unreachable")}
	stmt := ast.ToStmt(mac, true)
	block := exprStmtBlock(stmt)
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}
	if len(block.Stmts) != 1 {
		t.Fatalf("terminal macro statement grew a branch: got %d statements, want 1", len(block.Stmts))
	}
	if block.Stmts[0] != ast.Stmt(stmt) {
		t.Fatalf("terminal macro statement was replaced")
	}
}

func TestShatterConvertsPlainAssert(t *testing.T) {
	mac := &ast.MacroInvocationExpr{
		Path:   "assert",
		Tokens: []token.Token{token.CreateLiteral(token.IDENTIFIER, "ok", "ok", 0, 0)},
	}
	stmt := ast.ToStmt(mac, true)
	block := exprStmtBlock(stmt)
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}
	if len(block.Stmts) != 1 {
		t.Fatalf("assert conversion should replace in place, got %d statements", len(block.Stmts))
	}
	es, ok := block.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("converted statement is %T, want *ast.ExprStmt", block.Stmts[0])
	}
	ifExpr, ok := es.Expr.(*ast.IfExpr)
	if !ok {
		t.Fatalf("converted assert is %T, want *ast.IfExpr", es.Expr)
	}
	unary, ok := ifExpr.Cond.(*ast.UnaryExpr)
	if !ok || unary.Op != token.BANG {
		t.Fatalf("plain assert condition is %#v, want a negated (!) condition", ifExpr.Cond)
	}
}

func TestShatterSkipsMalformedAssertArgs(t *testing.T) {
	mac := &ast.MacroInvocationExpr{Path: "assert", Tokens: nil}
	stmt := ast.ToStmt(mac, true)
	block := exprStmtBlock(stmt)
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}
	if len(block.Stmts) != 1 {
		t.Fatalf("malformed assert should be left alone, got %d statements", len(block.Stmts))
	}
	es, ok := block.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("statement is no longer an ExprStmt: %T", block.Stmts[0])
	}
	if _, ok := es.Expr.(*ast.MacroInvocationExpr); !ok {
		t.Fatalf("malformed assert was rewritten to %T, want the original macro invocation untouched", es.Expr)
	}
}

func TestShatterTracksUnsafeAndDoesNotDoubleWrap(t *testing.T) {
	let := &ast.LetStmt{Name: "x", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	inner := exprStmtBlock(let)
	unsafeBlock := &ast.UnsafeBlockExpr{Body: inner}
	outer := exprStmtBlock(ast.ToStmt(unsafeBlock, true))
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: outer}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}

	for _, s := range inner.Stmts {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			continue
		}
		ifExpr, ok := es.Expr.(*ast.IfExpr)
		if !ok {
			continue
		}
		for _, innerStmt := range ifExpr.Then.Stmts {
			innerEs, ok := innerStmt.(*ast.ExprStmt)
			if !ok {
				continue
			}
			if _, ok := innerEs.Expr.(*ast.UnsafeBlockExpr); ok {
				t.Fatalf("branch injected inside an already-unsafe block was wrapped in a redundant unsafe block")
			}
		}
	}
}

func TestShatterWrapsBranchInUnsafeWhenNotAlreadyInside(t *testing.T) {
	let := &ast.LetStmt{Name: "x", Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	block := exprStmtBlock(let)
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if _, err := Shatter(file, false); err != nil {
		t.Fatalf("Shatter: %v", err)
	}

	wrapped := false
	for _, s := range block.Stmts[1:] {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			continue
		}
		ifExpr, ok := es.Expr.(*ast.IfExpr)
		if !ok {
			continue
		}
		for _, thenStmt := range ifExpr.Then.Stmts {
			thenEs, ok := thenStmt.(*ast.ExprStmt)
			if ok {
				if _, ok := thenEs.Expr.(*ast.UnsafeBlockExpr); ok {
					wrapped = true
				}
			}
		}
	}
	if !wrapped {
		t.Fatalf("injected branch at top level was not wrapped in an unsafe block")
	}
}
