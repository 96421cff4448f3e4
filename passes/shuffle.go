package passes

import "r2d2/ast"

const shuffleAttr = "shuffle"

// ErrShuffleRNG wraps a CSPRNG failure encountered while permuting a
// block's shuffle-marked statements; it is not expected to occur under
// a working crypto/rand.Reader.
type ErrShuffleRNG struct{ Err error }

func (e ErrShuffleRNG) Error() string { return "passes: shuffling statements: " + e.Err.Error() }
func (e ErrShuffleRNG) Unwrap() error { return e.Err }

// Shuffle implements spec §4.5 over every block reachable from file's
// items: per block, the statements carrying the `shuffle` attribute are
// collected in source order, permuted uniformly at random, and the
// marked positions are refilled from the permuted list. Scoping is
// strictly per-block — shuffle never reorders across a block boundary —
// because shuffleBlock only ever sees one ast.BlockExpr's own Stmts
// slice; nested blocks get their own independent call via walkItems.
func Shuffle(file *ast.File) error {
	var firstErr error
	walkItems(file.Items, func(b *ast.BlockExpr) {
		if firstErr != nil {
			return
		}
		if err := shuffleBlock(b); err != nil {
			firstErr = err
		}
	})
	return firstErr
}

func shuffleBlock(block *ast.BlockExpr) error {
	var marked []ast.Stmt
	var positions []int
	for i, s := range block.Stmts {
		if ast.HasAttr(s, shuffleAttr) {
			marked = append(marked, s)
			positions = append(positions, i)
		}
	}
	if len(marked) < 2 {
		// Nothing to reorder: a single marked statement permutes to
		// itself, and its attribute still needs stripping below.
		for _, s := range marked {
			ast.StripAttr(s, shuffleAttr)
		}
		return nil
	}

	order, err := permute(len(marked))
	if err != nil {
		return ErrShuffleRNG{Err: err}
	}
	permuted := make([]ast.Stmt, len(marked))
	for i, srcIdx := range order {
		permuted[i] = marked[srcIdx]
	}

	for i, pos := range positions {
		ast.StripAttr(permuted[i], shuffleAttr)
		block.Stmts[pos] = permuted[i]
	}
	return nil
}
