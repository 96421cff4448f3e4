package passes

import (
	"testing"

	"r2d2/ast"
)

func markShuffle(s ast.Stmt) ast.Stmt {
	h, ok := ast.AttributesOf(s)
	if !ok {
		panic("statement does not carry attributes")
	}
	*h.Attrs() = append(*h.Attrs(), ast.Attribute{Name: shuffleAttr})
	return s
}

func letStmt(name string) *ast.LetStmt {
	return &ast.LetStmt{Name: name, Value: &ast.Literal{Kind: ast.IntLit, Value: int64(0)}}
}

func TestShuffleStripsAttributeEvenWithoutReorder(t *testing.T) {
	stmt := markShuffle(letStmt("a"))
	block := &ast.BlockExpr{Stmts: []ast.Stmt{stmt}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Shuffle(file); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	if ast.HasAttr(block.Stmts[0], shuffleAttr) {
		t.Fatalf("shuffle attribute still present after a single-marked-statement block")
	}
}

func TestShuffleKeepsUnmarkedPositionsFixed(t *testing.T) {
	unmarkedFirst := letStmt("fixed-first")
	a := markShuffle(letStmt("a"))
	b := markShuffle(letStmt("b"))
	c := markShuffle(letStmt("c"))
	unmarkedLast := letStmt("fixed-last")

	block := &ast.BlockExpr{Stmts: []ast.Stmt{unmarkedFirst, a, b, c, unmarkedLast}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

	if err := Shuffle(file); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}

	if block.Stmts[0] != unmarkedFirst {
		t.Fatalf("unmarked leading statement moved")
	}
	if block.Stmts[4] != unmarkedLast {
		t.Fatalf("unmarked trailing statement moved")
	}

	seen := map[ast.Stmt]bool{}
	for _, s := range block.Stmts[1:4] {
		if ast.HasAttr(s, shuffleAttr) {
			t.Fatalf("shuffle attribute survived permutation on %v", s)
		}
		seen[s] = true
	}
	for _, want := range []ast.Stmt{a, b, c} {
		if !seen[want] {
			t.Fatalf("permuted set lost statement %v", want)
		}
	}
}

func TestShuffleActuallyReordersMarkedStatements(t *testing.T) {
	// A single trial over crypto/rand's uniform permutation can legitimately
	// land on the identity order, so run enough trials that seeing nothing
	// but identity orders would mean the pass isn't permuting at all.
	const trials = 200
	names := []string{"a", "b", "c", "d", "e"}
	for attempt := 0; attempt < trials; attempt++ {
		marked := make([]*ast.LetStmt, len(names))
		stmts := make([]ast.Stmt, len(names))
		for i, name := range names {
			marked[i] = letStmt(name)
			markShuffle(marked[i])
			stmts[i] = marked[i]
		}
		block := &ast.BlockExpr{Stmts: append([]ast.Stmt(nil), stmts...)}
		file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: block}}}

		if err := Shuffle(file); err != nil {
			t.Fatalf("Shuffle: %v", err)
		}

		reordered := false
		for i, s := range block.Stmts {
			if s != ast.Stmt(marked[i]) {
				reordered = true
				break
			}
		}
		if reordered {
			return
		}
	}
	t.Fatalf("shuffle produced the identity permutation in all %d trials; pass is not reordering marked statements", trials)
}

func TestShuffleScopedPerBlockNotAcrossNesting(t *testing.T) {
	inner := markShuffle(letStmt("inner"))
	innerBlock := &ast.BlockExpr{Stmts: []ast.Stmt{inner}}
	outer := markShuffle(letStmt("outer"))
	ifStmt := ast.ToStmt(&ast.IfExpr{
		Cond: &ast.Literal{Kind: ast.BoolLit, Value: true},
		Then: innerBlock,
	}, false)
	outerBlock := &ast.BlockExpr{Stmts: []ast.Stmt{outer, ifStmt}}
	file := &ast.File{Items: []ast.Item{&ast.FuncItem{Name: "f", Body: outerBlock}}}

	if err := Shuffle(file); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	if innerBlock.Stmts[0] != inner {
		t.Fatalf("inner block's marked statement was moved out of its own block")
	}
	if outerBlock.Stmts[0] != outer {
		t.Fatalf("outer block's marked statement was swapped with a statement from the nested block")
	}
	if ast.HasAttr(innerBlock.Stmts[0], shuffleAttr) {
		t.Fatalf("inner block's shuffle attribute was not stripped")
	}
	if ast.HasAttr(outerBlock.Stmts[0], shuffleAttr) {
		t.Fatalf("outer block's shuffle attribute was not stripped")
	}
}
