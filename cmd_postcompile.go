package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"r2d2/ast"
	"r2d2/pipeline"
)

// postcompileCmd implements `postcompile <binary> [checks.json]` (spec
// §4.3/§4.8): patch a compiled binary's embedded placeholder hashes with
// the real digest of its code section, for every salt anchor present.
// It reads the IntegrityCheck vector obfuscateCmd recorded, defaulting
// to "<binary>.checks.json" when the sidecar path isn't given explicitly.
type postcompileCmd struct{}

func (*postcompileCmd) Name() string     { return "postcompile" }
func (*postcompileCmd) Synopsis() string { return "patch a compiled binary's integrity-check placeholders" }
func (*postcompileCmd) Usage() string {
	return "postcompile <binary> [checks.json]:\n  overwrite each present integrity check's placeholder hash with the real digest.\n"
}

func (*postcompileCmd) SetFlags(*flag.FlagSet) {}

func (*postcompileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "💥 postcompile requires <binary> and an optional checks.json path")
		return subcommands.ExitUsageError
	}
	binaryPath := f.Arg(0)
	sidecar := binaryPath + checksSidecarSuffix
	if f.NArg() == 2 {
		sidecar = f.Arg(1)
	}

	checks, err := readChecksSidecar(sidecar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 postcompile: reading %s: %v\n", sidecar, err)
		return subcommands.ExitFailure
	}

	if err := pipeline.PostCompile(binaryPath, checks); err != nil {
		fmt.Fprintf(os.Stderr, "💥 postcompile failed: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("patched %s against %d integrity check(s)\n", binaryPath, len(checks))
	return subcommands.ExitSuccess
}

func readChecksSidecar(path string) ([]ast.IntegrityCheck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in []integrityCheckJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	out := make([]ast.IntegrityCheck, len(in))
	for i, c := range in {
		hash, err := hexDecode(c.PlaceholderHash)
		if err != nil {
			return nil, fmt.Errorf("checks[%d].placeholder_hash: %w", i, err)
		}
		salt, err := hexDecode(c.Salt)
		if err != nil {
			return nil, fmt.Errorf("checks[%d].salt: %w", i, err)
		}
		out[i] = ast.IntegrityCheck{Kind: ast.IntegrityCheckKind(c.Kind)}
		copy(out[i].PlaceholderHash[:], hash)
		copy(out[i].Salt[:], salt)
	}
	return out, nil
}
