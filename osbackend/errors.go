package osbackend

import "fmt"

// ErrKillDateMissing is the spec §7 "kill-date absent in release" fatal
// condition: a release-mode pass asked for a kill-date condition but
// KILLDATE was never set.
type ErrKillDateMissing struct{}

func (ErrKillDateMissing) Error() string {
	return "💥 KILLDATE not set and release mode forbids a debug-only default"
}

// ErrBinaryParse wraps a failure to parse the produced executable
// (neither valid PE nor valid ELF, or missing an expected section).
type ErrBinaryParse struct {
	Path string
	Err  error
}

func (e ErrBinaryParse) Error() string {
	return fmt.Sprintf("💥 failed to parse binary %s: %v", e.Path, e.Err)
}

func (e ErrBinaryParse) Unwrap() error { return e.Err }

// ErrPlaceholderNotFound is spec §7's "placeholder not found" fatal
// condition: the salt anchor was found in the code section but the
// placeholder hash was absent from the read-only data section, which
// means the toolchain did not preserve the embedded constant and every
// check built on it would evaluate false at runtime.
type ErrPlaceholderNotFound struct {
	Section string
}

func (e ErrPlaceholderNotFound) Error() string {
	return fmt.Sprintf("💥 salt anchor present in code section but placeholder hash missing from %s", e.Section)
}
