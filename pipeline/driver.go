// Package pipeline implements the obfuscator's top-level entry points
// (spec §4.7, §4.8): the per-file driver that runs parse → shuffle →
// string-encryption → shatter → pretty-print, a directory-wide fan-out
// over it, and the thin post-compile wrapper over osbackend.Patch.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"r2d2/ast"
	"r2d2/lexer"
	"r2d2/parser"
	"r2d2/passes"
)

// sourceExt is the "<source-ext>" spec §6 describes ObfuscateDirectory
// walking; this core's own surface grammar files carry it.
const sourceExt = ".nl"

// ErrParse wraps a lexer or parser failure against one source file; any
// parse failure is fatal (spec §4.7), the caller gets the file path and
// underlying error.
type ErrParse struct {
	Path string
	Err  error
}

func (e ErrParse) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("pipeline: parsing %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("pipeline: parsing source: %v", e.Err)
}

func (e ErrParse) Unwrap() error { return e.Err }

// Config controls the one pipeline behavior that depends on the target
// build profile: whether the kill-date condition permits its
// debug-only default (spec §4.6's kill-date condition, §7's "kill-date
// absent in release" fatal case).
type Config struct {
	Release bool
}

// Obfuscate implements spec §4.7's per-file pipeline: parse → shuffle →
// string-encryption → shatter → pretty-print. It returns the
// pretty-printed output and every IntegrityCheck the shatter pass's
// integrity-condition draws produced, for the eventual post-compile
// patch step.
func Obfuscate(source string, cfg Config) (string, []ast.IntegrityCheck, error) {
	file, err := parseSource(source)
	if err != nil {
		return "", nil, err
	}

	if err := passes.Shuffle(file); err != nil {
		return "", nil, fmt.Errorf("pipeline: shuffle pass: %w", err)
	}
	if err := passes.Encrypt(file); err != nil {
		return "", nil, fmt.Errorf("pipeline: string-encryption pass: %w", err)
	}
	checks, err := passes.Shatter(file, cfg.Release)
	if err != nil {
		return "", nil, fmt.Errorf("pipeline: shatter pass: %w", err)
	}

	output := parser.NewPrinter().Print(file)
	return output, checks, nil
}

func parseSource(source string) (*ast.File, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, ErrParse{Err: err}
	}
	file, errs := parser.Make(tokens).Parse()
	if len(errs) > 0 {
		return nil, ErrParse{Err: errs[0]}
	}
	return file, nil
}

// fileResult is one file's outcome, collected by ObfuscateDirectory's
// worker pool before any error is surfaced to the caller.
type fileResult struct {
	path   string
	checks []ast.IntegrityCheck
	err    error
}

// ObfuscateDirectory implements spec §5's concurrency model: a fixed
// pool of runtime.GOMAXPROCS(0) worker goroutines, each taking one file
// at a time, over every sourceExt file under root. Each obfuscated file is rewritten
// in place with its pretty-printed output; the returned slice
// concatenates every file's IntegrityCheck vector, the post-compile
// patcher's input. The CSPRNG (crypto/rand.Reader, used throughout
// package passes and arch) is safe for concurrent use per its own
// documented contract, so no additional locking is needed around it;
// filesystem serialization across concurrent ObfuscateDirectory
// invocations is the caller's responsibility (spec §5(b)), not this
// package's.
func ObfuscateDirectory(root string, cfg Config) ([]ast.IntegrityCheck, error) {
	var paths []string
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), sourceExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("pipeline: walking %s: %w", root, walkErr)
	}

	workers := runtime.GOMAXPROCS(0)
	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- obfuscateFile(path, cfg)
			}
		}()
	}
	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []ast.IntegrityCheck
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		all = append(all, r.checks...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

func obfuscateFile(path string, cfg Config) fileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: fmt.Errorf("pipeline: reading %s: %w", path, err)}
	}
	output, checks, err := Obfuscate(string(src), cfg)
	if err != nil {
		if pe, ok := err.(ErrParse); ok {
			pe.Path = path
			err = pe
		}
		return fileResult{path: path, err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{path: path, err: fmt.Errorf("pipeline: stat %s: %w", path, err)}
	}
	if err := os.WriteFile(path, []byte(output), info.Mode().Perm()); err != nil {
		return fileResult{path: path, err: fmt.Errorf("pipeline: writing %s: %w", path, err)}
	}
	return fileResult{path: path, checks: checks}
}
