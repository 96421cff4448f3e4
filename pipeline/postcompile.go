package pipeline

import (
	"r2d2/ast"
	"r2d2/osbackend"
)

// PostCompile implements spec §4.8, which defers entirely to §4.3: it
// is a thin wrapper over osbackend.Patch. It lives in this package
// rather than just re-exporting osbackend.Patch directly so that the
// pipeline package is the one stable import for every stage of the
// obfuscator's external interface (spec §6's "post_compile(binary_path,
// [IntegrityCheck])" entry point), independent of which package
// happens to implement the platform-specific half underneath.
func PostCompile(binaryPath string, checks []ast.IntegrityCheck) error {
	return osbackend.Patch(binaryPath, checks)
}
