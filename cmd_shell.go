package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"r2d2/pipeline"
)

// shellCmd implements `shell` (spec §6's interactive surface): an
// obfuscate-one-snippet-at-a-time REPL over a single source snippet per
// line, printing the pretty-printed obfuscated form followed by any
// IntegrityCheck vector it produced. It mirrors the teacher's own REPL
// shape (read a line, run the pipeline, print the result, repeat) but
// drives this core's own Obfuscate entry point instead of a tree-walk
// interpreter.
type shellCmd struct {
	release bool
}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "interactively obfuscate source snippets" }
func (*shellCmd) Usage() string {
	return "shell [-release]:\n  read one source snippet per line, print its obfuscated form and integrity checks.\n"
}

func (c *shellCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.release, "release", false, "forbid the debug-only kill-date default; KILLDATE must be set")
}

func (c *shellCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	rl, err := readline.New("obfuscate> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 shell: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	cfg := pipeline.Config{Release: c.release}
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 shell: %v\n", err)
			return subcommands.ExitFailure
		}
		if line == "" {
			continue
		}

		output, checks, err := pipeline.Obfuscate(line, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			continue
		}
		fmt.Println(output)
		if len(checks) > 0 {
			encoded, _ := json.Marshal(checks)
			fmt.Printf("// %d integrity check(s): %s\n", len(checks), encoded)
		}
	}
}
