package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"r2d2/ast"
	"r2d2/pipeline"
)

// checksSidecarSuffix names the JSON file ObfuscateCmd writes next to the
// directory it processed, recording every IntegrityCheck the shatter pass
// produced across the whole tree so a later `postcompile` invocation can
// patch the matching binary without re-running the pipeline.
const checksSidecarSuffix = ".checks.json"

// integrityCheckJSON is the wire shape for one ast.IntegrityCheck: its
// two byte arrays hex-encode, since Go's default JSON encoding of a
// fixed-size byte array is a numeric array, not a string.
type integrityCheckJSON struct {
	Kind            int    `json:"kind"`
	PlaceholderHash string `json:"placeholder_hash"`
	Salt            string `json:"salt"`
}

// obfuscateCmd implements `obfuscate <dir>` (spec §6): walk dir for
// source files and rewrite each in place with its obfuscated form,
// spec §4.7/§5. It then writes the accumulated IntegrityCheck vector to
// a sidecar file next to dir for the postcompile verb to consume.
type obfuscateCmd struct {
	release bool
}

func (*obfuscateCmd) Name() string     { return "obfuscate" }
func (*obfuscateCmd) Synopsis() string { return "obfuscate every source file under a directory in place" }
func (*obfuscateCmd) Usage() string {
	return "obfuscate [-release] <dir>:\n  run the shuffle/string-encryption/shatter pipeline over every source file under dir.\n"
}

func (c *obfuscateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.release, "release", false, "forbid the debug-only kill-date default; KILLDATE must be set")
}

func (c *obfuscateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "💥 obfuscate requires exactly one <dir> argument")
		return subcommands.ExitUsageError
	}
	dir := f.Arg(0)

	checks, err := pipeline.ObfuscateDirectory(dir, pipeline.Config{Release: c.release})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 obfuscate failed: %v\n", err)
		return subcommands.ExitFailure
	}

	sidecar := filepath.Clean(dir) + checksSidecarSuffix
	if err := writeChecksSidecar(sidecar, checks); err != nil {
		fmt.Fprintf(os.Stderr, "💥 obfuscate succeeded but failed to write %s: %v\n", sidecar, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("obfuscated tree under %s, %d integrity check(s) recorded in %s\n", dir, len(checks), sidecar)
	return subcommands.ExitSuccess
}

func writeChecksSidecar(path string, checks []ast.IntegrityCheck) error {
	out := make([]integrityCheckJSON, len(checks))
	for i, c := range checks {
		out[i] = integrityCheckJSON{
			Kind:            int(c.Kind),
			PlaceholderHash: hexEncode(c.PlaceholderHash[:]),
			Salt:            hexEncode(c.Salt[:]),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
