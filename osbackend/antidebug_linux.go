//go:build linux

package osbackend

import "r2d2/ast"

// GenerateAntiDebugCheck produces the Unix-like anti-debug probe of
// spec §4.3: parse /proc/self/status, find TracerPid:, check non-zero.
func GenerateAntiDebugCheck() (ast.ShatterCondition, error) {
	return unixAntiDebugCondition(), nil
}
