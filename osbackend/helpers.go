package osbackend

import (
	"strings"

	"r2d2/ast"
	"r2d2/token"
)

// pathExpr builds a PathExpr from a `::`-joined path, e.g.
// "r2d2::antidebug::tracer_pid".
func pathExpr(path string) *ast.PathExpr {
	return &ast.PathExpr{Segments: strings.Split(path, "::")}
}

// callPath builds a call to the runtime helper at path — the emitted
// code always resolves helpers this way (spec §9 "Runtime helper
// resolution": an absolute, unambiguous path, assuming the obfuscator's
// own runtime crate is on the dependency graph of the code being
// obfuscated).
func callPath(path string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Callee: pathExpr(path), Args: args}
}

// notZero builds `name != 0`, the shape the Unix anti-debug condition
// reduces to once its setup has bound a local.
func notZero(name string) *ast.BinaryExpr {
	return &ast.BinaryExpr{
		Left:  pathExpr(name),
		Op:    token.NE,
		Right: &ast.Literal{Kind: ast.IntLit, Value: int64(0)},
	}
}
