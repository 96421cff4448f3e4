package passes

import (
	"strings"

	"r2d2/ast"
	"r2d2/memcrypto"
	"r2d2/parser"
)

// Encrypt implements spec §4.4 over every reachable expression,
// statement, and recognised macro body in file: every string or
// byte-string literal in an encryptable position is replaced by a block
// that decrypts a CSPRNG-drawn-key AEAD ciphertext at runtime. Patterns
// are never visited (this grammar keeps pattern text as raw tokens, not
// Expr nodes), so the "never rewrite a pattern" exclusion holds without
// special-casing.
func Encrypt(file *ast.File) error {
	p := &encryptPass{}
	for _, it := range file.Items {
		p.item(it)
		if p.err != nil {
			break
		}
	}
	return p.err
}

type encryptPass struct{ err error }

func eligibleLiteral(lit *ast.Literal) bool {
	return lit.Kind == ast.StringLit || lit.Kind == ast.ByteStringLit
}

func (p *encryptPass) item(it ast.Item) {
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
	case *ast.StaticItem:
		v.Value = p.expr(v.Value, false)
	case *ast.ConstItem:
		// Constant items are excluded: runtime decryption cannot appear
		// in a const-evaluation context.
	case *ast.UseItem, *ast.TypeItem:
	}
}

func (p *encryptPass) block(b *ast.BlockExpr) {
	if b == nil || p.err != nil {
		return
	}
	for _, s := range b.Stmts {
		p.stmt(s)
	}
	b.Tail = p.expr(b.Tail, false)
}

func (p *encryptPass) stmt(s ast.Stmt) {
	if p.err != nil {
		return
	}
	switch v := s.(type) {
	case *ast.LetStmt:
		if lit, ok := v.Value.(*ast.Literal); ok && eligibleLiteral(lit) {
			if strings.HasPrefix(strings.TrimSpace(v.Type), "&") {
				// Reference-typed annotation: the owned decrypted value
				// would not outlive this binding, so leave it alone.
				return
			}
			v.Value = p.encryptLiteral(lit, true)
			return
		}
		v.Value = p.expr(v.Value, false)
	case *ast.ItemStmt:
		p.item(v.Item)
	case *ast.ExprStmt:
		v.Expr = p.expr(v.Expr, false)
	}
}

// expr rewrites e in place and returns the (possibly replaced) node.
// protect is true exactly when e occupies a direct call/method-call
// argument position, the one other exclusion that depends on where e
// sits rather than what e is.
func (p *encryptPass) expr(e ast.Expr, protect bool) ast.Expr {
	if e == nil || p.err != nil {
		return e
	}
	switch v := e.(type) {
	case *ast.Literal:
		if protect || !eligibleLiteral(v) {
			return v
		}
		return p.encryptLiteral(v, false)
	case *ast.CallExpr:
		v.Callee = p.expr(v.Callee, false)
		for i := range v.Args {
			v.Args[i] = p.expr(v.Args[i], true)
		}
		return v
	case *ast.MethodCallExpr:
		v.Receiver = p.expr(v.Receiver, false)
		for i := range v.Args {
			v.Args[i] = p.expr(v.Args[i], true)
		}
		return v
	case *ast.BlockExpr:
		p.block(v)
		return v
	case *ast.IfExpr:
		v.Cond = p.expr(v.Cond, false)
		p.block(v.Then)
		v.Else = p.expr(v.Else, false)
		return v
	case *ast.MatchExpr:
		v.Scrutinee = p.expr(v.Scrutinee, false)
		for i := range v.Arms {
			v.Arms[i].Guard = p.expr(v.Arms[i].Guard, false)
			v.Arms[i].Body = p.expr(v.Arms[i].Body, false)
		}
		return v
	case *ast.LoopExpr:
		v.Cond = p.expr(v.Cond, false)
		v.Iter = p.expr(v.Iter, false)
		p.block(v.Body)
		return v
	case *ast.UnsafeBlockExpr:
		p.block(v.Body)
		return v
	case *ast.AssignExpr:
		v.Target = p.expr(v.Target, false)
		v.Value = p.expr(v.Value, false)
		return v
	case *ast.BinaryExpr:
		v.Left = p.expr(v.Left, false)
		v.Right = p.expr(v.Right, false)
		return v
	case *ast.UnaryExpr:
		v.Operand = p.expr(v.Operand, false)
		return v
	case *ast.ReferenceExpr:
		v.Operand = p.expr(v.Operand, false)
		return v
	case *ast.BreakExpr:
		v.Value = p.expr(v.Value, false)
		return v
	case *ast.ReturnExpr:
		v.Value = p.expr(v.Value, false)
		return v
	case *ast.YieldExpr:
		v.Value = p.expr(v.Value, false)
		return v
	case *ast.ParenExpr:
		v.Inner = p.expr(v.Inner, false)
		return v
	case *ast.FieldExpr:
		v.Receiver = p.expr(v.Receiver, false)
		return v
	case *ast.IndexExpr:
		v.Receiver = p.expr(v.Receiver, false)
		v.Index = p.expr(v.Index, false)
		return v
	case *ast.MacroInvocationExpr:
		p.macro(v)
		return v
	default:
		// PathExpr, ContinueExpr, RawExpr: leaves.
		return e
	}
}

// macro implements the "encryption-eligible macros" rule: a recognised
// format-style macro's single trivial format literal (no `{` anywhere)
// is itself encrypted and rewritten to `("{}", ENCRYPTED(original))`;
// otherwise the macro's positional/named arguments are decomposed and
// descended into, leaving the format template untouched. An
// unrecognised macro's raw token stream is opaque and left alone.
func (p *encryptPass) macro(v *ast.MacroInvocationExpr) {
	if v.Format != nil || !parser.RecognisedFormatMacros[v.Path] {
		return
	}
	args, err := parser.ParseFormatArgs(v.Tokens)
	if err != nil {
		return
	}
	if len(args.Positional) == 0 && len(args.Named) == 0 && !strings.Contains(args.Template, "{") {
		encrypted := p.encryptLiteral(&ast.Literal{Kind: ast.StringLit, Value: args.Template}, false)
		if p.err != nil {
			return
		}
		v.Format = &ast.FormatArgs{Template: "{}", Positional: []ast.Expr{encrypted}}
		v.Tokens = nil
		return
	}
	for i := range args.Positional {
		args.Positional[i] = p.expr(args.Positional[i], false)
	}
	for i := range args.Named {
		args.Named[i].Value = p.expr(args.Named[i].Value, false)
	}
	v.Format = &args
	v.Tokens = nil
}

func (p *encryptPass) encryptLiteral(lit *ast.Literal, owned bool) ast.Expr {
	if p.err != nil {
		return lit
	}
	block, err := p.buildDecryptBlock([]byte(lit.Value.(string)), lit.Kind, owned)
	if err != nil {
		p.err = err
		return lit
	}
	return block
}

// buildDecryptBlock is spec §4.4 step 2-3: encrypt data, then emit a
// block that binds the key, nonce, and ciphertext as byte-array
// literals, calls the runtime decryption helper, and (for a string
// literal) converts the result back to a string — owned when owned is
// set (the literal was a let-binding's whole value with no explicit
// reference-typed annotation), borrowed otherwise.
func (p *encryptPass) buildDecryptBlock(data []byte, kind ast.LiteralKind, owned bool) (*ast.BlockExpr, error) {
	rec, err := memcrypto.Encrypt(data)
	if err != nil {
		return nil, err
	}
	keyName, nonceName := ast.MintIdentifier(), ast.MintIdentifier()
	ctName, plainName := ast.MintIdentifier(), ast.MintIdentifier()

	stmts := []ast.Stmt{
		&ast.LetStmt{Name: keyName, Type: "[u8; 32]", Value: ast.ByteArrayLiteral(rec.Key[:])},
		&ast.LetStmt{Name: nonceName, Type: "[u8; 24]", Value: ast.ByteArrayLiteral(rec.Nonce[:])},
		&ast.LetStmt{Name: ctName, Value: ast.ByteArrayLiteral(rec.Ciphertext)},
		&ast.LetStmt{
			Name:  plainName,
			Value: strCallPath("r2d2::memcrypto::decrypt", strPathExpr(keyName), strPathExpr(nonceName), strPathExpr(ctName)),
		},
	}

	var tail ast.Expr = strPathExpr(plainName)
	if kind == ast.StringLit {
		tail = &ast.MethodCallExpr{
			Receiver: strCallPath("String::from_utf8", strPathExpr(plainName)),
			Method:   "unwrap",
		}
	}
	if !owned {
		tail = &ast.ReferenceExpr{Operand: tail}
	}
	return &ast.BlockExpr{Stmts: stmts, Tail: tail}, nil
}

func strPathExpr(path string) *ast.PathExpr {
	return &ast.PathExpr{Segments: strings.Split(path, "::")}
}

func strCallPath(path string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Callee: strPathExpr(path), Args: args}
}
