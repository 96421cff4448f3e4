//go:build windows

package osbackend

import "r2d2/ast"

// GenerateAntiDebugCheck produces the Windows anti-debug probe of spec
// §4.3: call IsDebuggerPresent, treat a non-zero return as true.
func GenerateAntiDebugCheck() (ast.ShatterCondition, error) {
	return windowsAntiDebugCondition(), nil
}
