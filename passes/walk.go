// Package passes implements the three AST-rewriting stages the pipeline
// driver runs in sequence: statement-shuffle, string-literal encryption,
// and shatter. Each pass owns a small recursive-descent walker over its
// own concern rather than implementing the full ast.ExprVisitor /
// ast.StmtVisitor / ast.ItemVisitor contract: those interfaces return a
// bare `any` for the printer's read-only dispatch, and a mutating
// rewrite needs to replace a child in place (a []ast.Stmt element, an
// Expr field) rather than just compute a value from it, which a type
// switch expresses more directly than forcing every pass to carry
// thirty-three near-identical pass-through Visit methods.
package passes

import "r2d2/ast"

// walkItems recurses into every nested item a top-level item can own
// (a module's or impl/trait block's own items, a function's body),
// calling exprFn on every block expression it finds along the way.
// The shuffle pass, which only cares about block expressions, uses this
// directly; shatter and strencrypt each carry their own walker.
func walkItems(items []ast.Item, exprFn func(*ast.BlockExpr)) {
	for _, it := range items {
		walkItem(it, exprFn)
	}
}

func walkItem(it ast.Item, exprFn func(*ast.BlockExpr)) {
	switch v := it.(type) {
	case *ast.FuncItem:
		if v.Body != nil {
			walkBlock(v.Body, exprFn)
		}
	case *ast.ModItem:
		walkItems(v.Items, exprFn)
	case *ast.ImplItem:
		walkItems(v.Items, exprFn)
	case *ast.TraitItem:
		walkItems(v.Items, exprFn)
	case *ast.ConstItem:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.StaticItem:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.UseItem, *ast.TypeItem:
		// no nested expressions
	}
}

// walkBlock applies exprFn to block itself, then descends into every
// statement and the tail expression looking for further nested blocks.
func walkBlock(block *ast.BlockExpr, exprFn func(*ast.BlockExpr)) {
	if block == nil {
		return
	}
	exprFn(block)
	for _, s := range block.Stmts {
		walkStmtForBlocks(s, exprFn)
	}
	walkExprForBlocks(block.Tail, exprFn)
}

func walkStmtForBlocks(s ast.Stmt, exprFn func(*ast.BlockExpr)) {
	switch v := s.(type) {
	case *ast.LetStmt:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.ItemStmt:
		walkItem(v.Item, exprFn)
	case *ast.ExprStmt:
		walkExprForBlocks(v.Expr, exprFn)
	}
}

// walkExprForBlocks descends into e looking for every BlockExpr reachable
// without crossing into a nested ast.Item (a local fn's own body is
// handled by walkItem, not here, since its block is that item's
// concern, found via walkStmtForBlocks -> walkItem).
func walkExprForBlocks(e ast.Expr, exprFn func(*ast.BlockExpr)) {
	switch v := e.(type) {
	case nil:
	case *ast.BlockExpr:
		walkBlock(v, exprFn)
	case *ast.IfExpr:
		walkExprForBlocks(v.Cond, exprFn)
		walkBlock(v.Then, exprFn)
		walkExprForBlocks(v.Else, exprFn)
	case *ast.MatchExpr:
		walkExprForBlocks(v.Scrutinee, exprFn)
		for _, arm := range v.Arms {
			walkExprForBlocks(arm.Guard, exprFn)
			walkExprForBlocks(arm.Body, exprFn)
		}
	case *ast.LoopExpr:
		walkExprForBlocks(v.Cond, exprFn)
		walkExprForBlocks(v.Iter, exprFn)
		walkBlock(v.Body, exprFn)
	case *ast.UnsafeBlockExpr:
		walkBlock(v.Body, exprFn)
	case *ast.CallExpr:
		walkExprForBlocks(v.Callee, exprFn)
		for _, a := range v.Args {
			walkExprForBlocks(a, exprFn)
		}
	case *ast.MethodCallExpr:
		walkExprForBlocks(v.Receiver, exprFn)
		for _, a := range v.Args {
			walkExprForBlocks(a, exprFn)
		}
	case *ast.AssignExpr:
		walkExprForBlocks(v.Target, exprFn)
		walkExprForBlocks(v.Value, exprFn)
	case *ast.BinaryExpr:
		walkExprForBlocks(v.Left, exprFn)
		walkExprForBlocks(v.Right, exprFn)
	case *ast.UnaryExpr:
		walkExprForBlocks(v.Operand, exprFn)
	case *ast.ReferenceExpr:
		walkExprForBlocks(v.Operand, exprFn)
	case *ast.BreakExpr:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.ReturnExpr:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.YieldExpr:
		walkExprForBlocks(v.Value, exprFn)
	case *ast.ParenExpr:
		walkExprForBlocks(v.Inner, exprFn)
	case *ast.FieldExpr:
		walkExprForBlocks(v.Receiver, exprFn)
	case *ast.IndexExpr:
		walkExprForBlocks(v.Index, exprFn)
		walkExprForBlocks(v.Receiver, exprFn)
	case *ast.MacroInvocationExpr:
		if v.Format != nil {
			for _, p := range v.Format.Positional {
				walkExprForBlocks(p, exprFn)
			}
			for _, n := range v.Format.Named {
				walkExprForBlocks(n.Value, exprFn)
			}
		}
	case *ast.Literal, *ast.PathExpr, *ast.ContinueExpr, *ast.RawExpr:
		// leaves
	}
}
