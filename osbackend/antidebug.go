package osbackend

import (
	"r2d2/ast"
)

// unixAntiDebugCondition implements spec §4.3's Unix-like branch: setup
// binds a fresh local to the runtime helper that parses
// /proc/self/status for the TracerPid: line (that parse itself runs in
// the target binary's runtime library, not in this Go process — see
// spec §9 "Runtime helper resolution"), and check is true iff the value
// is non-zero.
func unixAntiDebugCondition() ast.ShatterCondition {
	name := ast.MintIdentifier()
	setup := []ast.Stmt{
		&ast.LetStmt{Name: name, Value: callPath("r2d2::antidebug::tracer_pid")},
	}
	return ast.ShatterCondition{Setup: setup, Check: notZero(name)}
}

// windowsAntiDebugCondition implements spec §4.3's Windows branch: no
// setup is needed, the check directly calls the OS "is debugger
// present" API and treats a non-zero return as true, the same shape
// original_source/src/shatter/windows.rs's generate_anti_debug_check
// produces.
func windowsAntiDebugCondition() ast.ShatterCondition {
	call := callPath("r2d2::windows::Win32::System::Diagnostics::Debug::IsDebuggerPresent")
	asBool := &ast.MethodCallExpr{Receiver: call, Method: "as_bool"}
	check := &ast.UnsafeBlockExpr{Body: &ast.BlockExpr{Tail: asBool}}
	return ast.ShatterCondition{Check: check}
}
