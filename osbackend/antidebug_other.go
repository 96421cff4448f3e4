//go:build !linux && !windows

package osbackend

import "r2d2/ast"

// GenerateAntiDebugCheck falls back to the Unix-like probe on any GOOS
// that isn't linux or windows, matching the Non-goal that this core
// never generates code for more than the host's own target OS.
func GenerateAntiDebugCheck() (ast.ShatterCondition, error) {
	return unixAntiDebugCondition(), nil
}
