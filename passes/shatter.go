package passes

import (
	"r2d2/arch"
	"r2d2/ast"
	"r2d2/osbackend"
	"r2d2/parser"
	"r2d2/token"
)

// terminalMacros are the macro invocations spec §4.6's policy table
// says to keep untouched and never shatter after, since control never
// falls through them.
var terminalMacros = map[string]bool{
	"compile_error": true, "panic": true, "unreachable": true, "unimplemented": true,
}

// Shatter implements spec §4.6 over every reachable block in file:
// per-statement shatter-branch injection, assert-macro conversion to
// shatter-guarded checks, and unsafe-block tracking, selecting one of
// {false-anchor, anti-debug, integrity, kill-date} uniformly at random
// for each injected condition. It returns every IntegrityCheck its
// condition generator produced, for the post-compile patcher to consume.
func Shatter(file *ast.File, release bool) ([]ast.IntegrityCheck, error) {
	p := &shatterPass{release: release}
	for _, it := range file.Items {
		p.item(it)
		if p.err != nil {
			return nil, p.err
		}
	}
	return p.integrityChecks, nil
}

type shatterPass struct {
	release         bool
	insideUnsafe    bool
	integrityChecks []ast.IntegrityCheck
	err             error
}

func (p *shatterPass) item(it ast.Item) {
	if p.err != nil {
		return
	}
	switch v := it.(type) {
	case *ast.FuncItem:
		p.block(v.Body)
	case *ast.ModItem:
		for _, sub := range v.Items {
			p.item(sub)
		}
	case *ast.ImplItem:
		for _, sub := range v.Items {
			p.item(sub)
		}
	case *ast.TraitItem:
		for _, sub := range v.Items {
			p.item(sub)
		}
	case *ast.ConstItem, *ast.StaticItem, *ast.UseItem, *ast.TypeItem:
		// No statement body to shatter.
	}
}

// block applies the per-statement policy table to b's own statements,
// recursing into each one first so nested blocks are shattered
// bottom-up, then rebuilds b.Stmts with the injected branches and
// assert-conversions spliced in.
func (p *shatterPass) block(b *ast.BlockExpr) {
	if b == nil || p.err != nil {
		return
	}
	var out []ast.Stmt
	for _, s := range b.Stmts {
		p.recurseStmt(s)
		if p.err != nil {
			return
		}
		out = append(out, p.applyPolicy(s)...)
		if p.err != nil {
			return
		}
	}
	b.Stmts = out
	b.Tail = p.expr(b.Tail)
}

// recurseStmt descends into s's own nested blocks/expressions (function
// bodies, if/loop/match arms, operands) before the policy table decides
// what happens around s itself.
func (p *shatterPass) recurseStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.LetStmt:
		v.Value = p.expr(v.Value)
	case *ast.ItemStmt:
		p.item(v.Item)
	case *ast.ExprStmt:
		v.Expr = p.expr(v.Expr)
	}
}

// expr descends into e looking for nested blocks, tracking unsafe-block
// entry/exit as it goes, and returns e (assert conversion only ever
// happens at the enclosing block's statement level, never mid-expression).
func (p *shatterPass) expr(e ast.Expr) ast.Expr {
	if e == nil || p.err != nil {
		return e
	}
	switch v := e.(type) {
	case *ast.BlockExpr:
		p.block(v)
	case *ast.IfExpr:
		v.Cond = p.expr(v.Cond)
		p.block(v.Then)
		v.Else = p.expr(v.Else)
	case *ast.MatchExpr:
		v.Scrutinee = p.expr(v.Scrutinee)
		for i := range v.Arms {
			v.Arms[i].Guard = p.expr(v.Arms[i].Guard)
			v.Arms[i].Body = p.expr(v.Arms[i].Body)
		}
	case *ast.LoopExpr:
		v.Cond = p.expr(v.Cond)
		v.Iter = p.expr(v.Iter)
		p.block(v.Body)
	case *ast.UnsafeBlockExpr:
		previous := p.insideUnsafe
		p.insideUnsafe = true
		p.block(v.Body)
		p.insideUnsafe = previous
	case *ast.CallExpr:
		v.Callee = p.expr(v.Callee)
		for i := range v.Args {
			v.Args[i] = p.expr(v.Args[i])
		}
	case *ast.MethodCallExpr:
		v.Receiver = p.expr(v.Receiver)
		for i := range v.Args {
			v.Args[i] = p.expr(v.Args[i])
		}
	case *ast.AssignExpr:
		v.Target = p.expr(v.Target)
		v.Value = p.expr(v.Value)
	case *ast.BinaryExpr:
		v.Left = p.expr(v.Left)
		v.Right = p.expr(v.Right)
	case *ast.UnaryExpr:
		v.Operand = p.expr(v.Operand)
	case *ast.ReferenceExpr:
		v.Operand = p.expr(v.Operand)
	case *ast.BreakExpr:
		v.Value = p.expr(v.Value)
	case *ast.ReturnExpr:
		v.Value = p.expr(v.Value)
	case *ast.YieldExpr:
		v.Value = p.expr(v.Value)
	case *ast.ParenExpr:
		v.Inner = p.expr(v.Inner)
	case *ast.FieldExpr:
		v.Receiver = p.expr(v.Receiver)
	case *ast.IndexExpr:
		v.Receiver = p.expr(v.Receiver)
		v.Index = p.expr(v.Index)
	case *ast.MacroInvocationExpr:
		if v.Format != nil {
			for i := range v.Format.Positional {
				v.Format.Positional[i] = p.expr(v.Format.Positional[i])
			}
			for i := range v.Format.Named {
				v.Format.Named[i].Value = p.expr(v.Format.Named[i].Value)
			}
		}
	}
	return e
}

// applyPolicy decides, per spec §4.6's table, what replaces s in the
// rebuilt block: s alone, s followed by a shatter branch, or (for an
// assert-family macro) a single replacement statement.
func (p *shatterPass) applyPolicy(s ast.Stmt) []ast.Stmt {
	switch v := s.(type) {
	case *ast.LetStmt:
		return p.appendBranch(s)
	case *ast.ItemStmt:
		return p.appendBranch(s)
	case *ast.ExprStmt:
		if !v.Terminated {
			return []ast.Stmt{s}
		}
		if mac, ok := v.Expr.(*ast.MacroInvocationExpr); ok {
			switch {
			case terminalMacros[mac.Path]:
				return []ast.Stmt{s}
			case parser.RecognisedAssertMacros[mac.Path]:
				replacement, err := p.convertAssert(mac)
				if err != nil {
					p.err = err
					return nil
				}
				return []ast.Stmt{replacement}
			}
		}
		switch v.Expr.(type) {
		case *ast.BreakExpr, *ast.ContinueExpr, *ast.ReturnExpr, *ast.YieldExpr:
			return []ast.Stmt{s}
		}
		return p.appendBranch(s)
	default:
		return []ast.Stmt{s}
	}
}

// appendBranch returns s followed by a freshly generated shatter branch:
// the chosen ShatterCondition's setup, then `if check { static rabbit
// hole }`.
func (p *shatterPass) appendBranch(s ast.Stmt) []ast.Stmt {
	cond, err := p.chooseCondition()
	if err != nil {
		p.err = err
		return nil
	}
	hole, err := arch.StaticRabbitHole()
	if err != nil {
		p.err = err
		return nil
	}
	branch := &ast.IfExpr{Cond: cond.Check, Then: p.maybeUnsafe(hole)}
	out := []ast.Stmt{s}
	out = append(out, cond.Setup...)
	out = append(out, ast.ToStmt(branch, false))
	return out
}

// convertAssert implements spec §4.6's assert conversion:
// assert/debug_assert -> `if !(C) { DYNAMIC }`, assert_eq -> `if L != R
// { DYNAMIC }`, assert_ne -> `if L == R { DYNAMIC }`.
func (p *shatterPass) convertAssert(mac *ast.MacroInvocationExpr) (ast.Stmt, error) {
	args, err := parser.ParseAssertArgs(mac.Path, mac.Tokens)
	if err != nil {
		// Malformed macro arguments inside the shatter pass are silently
		// skipped (spec §7), not fatal: leave the original assert alone.
		return ast.ToStmt(mac, true), nil
	}

	var check ast.Expr
	switch args.Kind {
	case ast.AssertEq:
		check = &ast.BinaryExpr{Left: args.Left, Op: token.NE, Right: args.Right}
	case ast.AssertNe:
		check = &ast.BinaryExpr{Left: args.Left, Op: token.EQ, Right: args.Right}
	default:
		check = &ast.UnaryExpr{Op: token.BANG, Operand: &ast.ParenExpr{Inner: args.Left}}
	}

	dynamic, err := arch.RabbitHole()
	if err != nil {
		return nil, err
	}
	body := p.maybeUnsafe(&ast.BlockExpr{Stmts: []ast.Stmt{ast.ToStmt(dynamic, true)}})
	return ast.ToStmt(&ast.IfExpr{Cond: check, Then: body}, false), nil
}

// maybeUnsafe wraps body in an unsafe block unless the pass is already
// tracking that it is inside one (spec §4.6's unsafe-block tracking).
func (p *shatterPass) maybeUnsafe(body *ast.BlockExpr) *ast.BlockExpr {
	if p.insideUnsafe {
		return body
	}
	return &ast.BlockExpr{Stmts: []ast.Stmt{ast.ToStmt(&ast.UnsafeBlockExpr{Body: body}, true)}}
}

// conditionKind enumerates the four condition flavors spec §4.6 chooses
// among uniformly at random for each injected branch.
type conditionKind int

const (
	conditionFalseAnchor conditionKind = iota
	conditionAntiDebug
	conditionIntegrity
	conditionKillDate
)

func (p *shatterPass) chooseCondition() (ast.ShatterCondition, error) {
	kind, err := randomUint(4)
	if err != nil {
		return ast.ShatterCondition{}, err
	}
	switch conditionKind(kind) {
	case conditionAntiDebug:
		return osbackend.GenerateAntiDebugCheck()
	case conditionIntegrity:
		cond, check, err := osbackend.GenerateIntegrityCheck()
		if err != nil {
			return ast.ShatterCondition{}, err
		}
		p.integrityChecks = append(p.integrityChecks, check)
		return cond, nil
	case conditionKillDate:
		return osbackend.GenerateKillDateCheck(p.release)
	default:
		return falseAnchorCondition()
	}
}

// falseAnchorCondition implements spec §4.6's false-anchor kind: a
// constant-time choice-valued zero (never optimized to a plain `false`
// literal the way a bare boolean constant would be), converted to a
// boolean that is always false. Confuses data-flow analysis that tries
// to prove the branch dead by constant-propagating a literal.
func falseAnchorCondition() (ast.ShatterCondition, error) {
	name := ast.MintIdentifier()
	setup := []ast.Stmt{
		&ast.LetStmt{
			Name:  name,
			Type:  "subtle::Choice",
			Value: strCallPath("subtle::Choice::from", &ast.Literal{Kind: ast.IntLit, Value: int64(0)}),
		},
	}
	check := strCallPath("bool::from", strPathExpr(name))
	return ast.ShatterCondition{Setup: setup, Check: check}, nil
}
