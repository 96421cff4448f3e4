// Recursive descent parser, in the same top-down style the teacher's
// own parser uses: one method per grammar rule, precedence encoded as a
// cascade of methods from loosest (assignment) to tightest (primary).
package parser

import (
	"fmt"
	"strings"

	"r2d2/ast"
	"r2d2/token"
)

var equalityTokenTypes = []token.TokenType{token.EQ, token.NE}
var comparisonTokenTypes = []token.TokenType{token.LT, token.LE, token.GT, token.GE}
var termTokenTypes = []token.TokenType{token.PLUS, token.MINUS}
var factorTokenTypes = []token.TokenType{token.STAR, token.SLASH, token.PERCENT}

// itemStartTokens are the keywords that can open an Item, used both at
// file scope and to decide whether a block statement is an ItemStmt.
var itemStartTokens = map[token.TokenType]bool{
	token.FN: true, token.CONST: true, token.STATIC: true, token.MOD: true,
	token.USE: true, token.IMPL: true, token.TYPE: true, token.TRAIT: true,
}

// Parser turns a token stream into a *ast.File, matching the teacher's
// Parser shape: a token slice plus a cursor, advanced by isMatch/consume.
type Parser struct {
	tokens   []token.Token
	position int
}

// Make constructs a Parser over tokens, positioned before the first one.
func Make(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

func (p *Parser) peek() token.Token     { return p.tokens[p.position] }
func (p *Parser) previous() token.Token { return p.tokens[p.position-1] }

func (p *Parser) advance() token.Token {
	if !p.isFinished() {
		p.position++
	}
	return p.previous()
}

func (p *Parser) isFinished() bool { return p.peek().Type == token.EOF }

func (p *Parser) checkType(t token.TokenType) bool {
	if p.isFinished() {
		return t == token.EOF
	}
	return p.peek().Type == t
}

func (p *Parser) isMatch(types ...token.TokenType) bool {
	for _, t := range types {
		if p.checkType(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType, message string) (token.Token, error) {
	if p.checkType(t) {
		return p.advance(), nil
	}
	cur := p.peek()
	return token.Token{}, CreateSyntaxError(cur.Line, cur.Column, message)
}

// Parse parses the entire token stream into a *ast.File, collecting
// every error it can recover from by skipping to the next plausible
// item boundary rather than stopping at the first failure.
func (p *Parser) Parse() (*ast.File, []error) {
	var items []ast.Item
	var errs []error

	for !p.isFinished() {
		item, err := p.item()
		if err != nil {
			errs = append(errs, err)
			p.syncToItemBoundary()
			continue
		}
		items = append(items, item)
	}
	return &ast.File{Items: items}, errs
}

func (p *Parser) syncToItemBoundary() {
	for !p.isFinished() {
		if itemStartTokens[p.peek().Type] || p.peek().Type == token.HASH {
			return
		}
		p.advance()
	}
}

// attributes parses zero or more `#[name(args)]` or `#[name]` markers.
func (p *Parser) attributes() ([]ast.Attribute, error) {
	var attrs []ast.Attribute
	for p.isMatch(token.HASH) {
		if _, err := p.consume(token.LBRACKET, "expected '[' after '#'"); err != nil {
			return nil, err
		}
		name, err := p.consume(token.IDENTIFIER, "expected attribute name")
		if err != nil {
			return nil, err
		}
		var args string
		if p.isMatch(token.LPAREN) {
			var parts []string
			for !p.checkType(token.RPAREN) && !p.isFinished() {
				parts = append(parts, p.advance().Lexeme)
			}
			if _, err := p.consume(token.RPAREN, "expected ')' closing attribute arguments"); err != nil {
				return nil, err
			}
			args = strings.Join(parts, " ")
		}
		if _, err := p.consume(token.RBRACKET, "expected ']' closing attribute"); err != nil {
			return nil, err
		}
		attrs = append(attrs, ast.Attribute{Name: name.Lexeme, Args: args})
	}
	return attrs, nil
}

func applyAttrs(node any, attrs []ast.Attribute) {
	if len(attrs) == 0 {
		return
	}
	if h, ok := ast.AttributesOf(node); ok {
		*h.Attrs() = attrs
	}
}

// item parses a single top-level or nested-module declaration.
func (p *Parser) item() (ast.Item, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}

	var (
		it  ast.Item
		ierr error
	)
	switch {
	case p.isMatch(token.FN):
		it, ierr = p.funcItem()
	case p.isMatch(token.CONST):
		it, ierr = p.constItem()
	case p.isMatch(token.STATIC):
		it, ierr = p.staticItem()
	case p.isMatch(token.MOD):
		it, ierr = p.modItem()
	case p.isMatch(token.USE):
		it, ierr = p.useItem()
	case p.isMatch(token.IMPL):
		it, ierr = p.implItem()
	case p.isMatch(token.TYPE):
		it, ierr = p.typeItem()
	case p.isMatch(token.TRAIT):
		it, ierr = p.traitItem()
	default:
		cur := p.peek()
		return nil, CreateSyntaxError(cur.Line, cur.Column, fmt.Sprintf("expected an item, found %q", cur.Lexeme))
	}
	if ierr != nil {
		return nil, ierr
	}
	applyAttrs(it, attrs)
	return it, nil
}

// typeText reads raw tokens up to (but not including) the next token in
// stop, reconstructing minimal-but-valid source text. This grammar never
// needs to reason about type structure, only to preserve and reprint it.
func (p *Parser) typeText(stop ...token.TokenType) string {
	isStop := func(t token.TokenType) bool {
		for _, s := range stop {
			if s == t {
				return true
			}
		}
		return false
	}
	var b strings.Builder
	for !p.isFinished() && !isStop(p.peek().Type) {
		tok := p.advance()
		switch tok.Type {
		case token.DCOLON, token.AMP, token.LT, token.LBRACKET:
		default:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok.Lexeme)
	}
	return b.String()
}

func (p *Parser) pathText(stop ...token.TokenType) string {
	isStop := func(t token.TokenType) bool {
		for _, s := range stop {
			if s == t {
				return true
			}
		}
		return false
	}
	var b strings.Builder
	for !p.isFinished() && !isStop(p.peek().Type) {
		b.WriteString(p.advance().Lexeme)
	}
	return b.String()
}

func (p *Parser) params() ([]ast.Param, error) {
	var params []ast.Param
	for !p.checkType(token.RPAREN) && !p.isFinished() {
		name, err := p.consume(token.IDENTIFIER, "expected parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COLON, "expected ':' after parameter name"); err != nil {
			return nil, err
		}
		typ := p.typeText(token.COMMA, token.RPAREN)
		params = append(params, ast.Param{Name: name.Lexeme, Type: typ})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' closing parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) funcItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	var ret string
	if p.isMatch(token.ARROW) {
		ret = p.typeText(token.LBRACE)
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to start function body"); err != nil {
		return nil, err
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.FuncItem{Name: name.Lexeme, Params: params, ReturnType: ret, Body: body}, nil
}

func (p *Parser) constItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected constant name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "expected ':' after constant name"); err != nil {
		return nil, err
	}
	typ := p.typeText(token.ASSIGN)
	if _, err := p.consume(token.ASSIGN, "expected '=' in const declaration"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMI, "expected ';' after const declaration"); err != nil {
		return nil, err
	}
	return &ast.ConstItem{Name: name.Lexeme, Type: typ, Value: value}, nil
}

func (p *Parser) staticItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected static name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "expected ':' after static name"); err != nil {
		return nil, err
	}
	typ := p.typeText(token.ASSIGN)
	if _, err := p.consume(token.ASSIGN, "expected '=' in static declaration"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMI, "expected ';' after static declaration"); err != nil {
		return nil, err
	}
	return &ast.StaticItem{Name: name.Lexeme, Type: typ, Value: value}, nil
}

func (p *Parser) itemList() ([]ast.Item, error) {
	var items []ast.Item
	for !p.checkType(token.RBRACE) && !p.isFinished() {
		it, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing block"); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Parser) modItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected module name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to start module body"); err != nil {
		return nil, err
	}
	items, err := p.itemList()
	if err != nil {
		return nil, err
	}
	return &ast.ModItem{Name: name.Lexeme, Items: items}, nil
}

func (p *Parser) useItem() (ast.Item, error) {
	path := p.pathText(token.SEMI)
	if _, err := p.consume(token.SEMI, "expected ';' after use declaration"); err != nil {
		return nil, err
	}
	return &ast.UseItem{Path: path}, nil
}

func (p *Parser) implItem() (ast.Item, error) {
	first, err := p.consume(token.IDENTIFIER, "expected a type name after 'impl'")
	if err != nil {
		return nil, err
	}
	var trait, typ string
	if p.isMatch(token.FOR) {
		trait = first.Lexeme
		second, err := p.consume(token.IDENTIFIER, "expected a type name after 'for'")
		if err != nil {
			return nil, err
		}
		typ = second.Lexeme
	} else {
		typ = first.Lexeme
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to start impl body"); err != nil {
		return nil, err
	}
	items, err := p.itemList()
	if err != nil {
		return nil, err
	}
	return &ast.ImplItem{Trait: trait, Type: typ, Items: items}, nil
}

func (p *Parser) typeItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected type alias name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.ASSIGN, "expected '=' in type alias"); err != nil {
		return nil, err
	}
	def := p.typeText(token.SEMI)
	if _, err := p.consume(token.SEMI, "expected ';' after type alias"); err != nil {
		return nil, err
	}
	return &ast.TypeItem{Name: name.Lexeme, Definition: def}, nil
}

func (p *Parser) traitItem() (ast.Item, error) {
	name, err := p.consume(token.IDENTIFIER, "expected trait name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' to start trait body"); err != nil {
		return nil, err
	}
	items, err := p.itemList()
	if err != nil {
		return nil, err
	}
	return &ast.TraitItem{Name: name.Lexeme, Items: items}, nil
}

// statement parses one statement within a block: an attributed item, a
// let binding, or an expression statement.
func (p *Parser) statement() (ast.Stmt, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}

	if itemStartTokens[p.peek().Type] {
		it, err := p.item()
		if err != nil {
			return nil, err
		}
		stmt := &ast.ItemStmt{Item: it}
		applyAttrs(stmt, attrs)
		return stmt, nil
	}

	if p.isMatch(token.LET) {
		stmt, err := p.letStatement()
		if err != nil {
			return nil, err
		}
		applyAttrs(stmt, attrs)
		return stmt, nil
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	terminated := p.isMatch(token.SEMI)
	stmt := ast.ToStmt(expr, terminated)
	applyAttrs(stmt, attrs)
	return stmt, nil
}

func (p *Parser) letStatement() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, "expected variable name after 'let'")
	if err != nil {
		return nil, err
	}
	var typ string
	if p.isMatch(token.COLON) {
		typ = p.typeText(token.ASSIGN, token.SEMI)
	}
	var value ast.Expr
	if p.isMatch(token.ASSIGN) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMI, "expected ';' after let statement"); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Lexeme, Type: typ, Value: value}, nil
}

// blockExpr parses statements up to the closing '}', which must already
// be pending (the opening '{' has been consumed by the caller). A final
// unterminated expression statement becomes the block's Tail, unless it
// is block-like (a block, if, match, loop or unsafe block), which stays
// a statement.
func (p *Parser) blockExpr() (*ast.BlockExpr, error) {
	var stmts []ast.Stmt
	for !p.checkType(token.RBRACE) && !p.isFinished() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing block"); err != nil {
		return nil, err
	}

	block := &ast.BlockExpr{}
	if n := len(stmts); n > 0 {
		if last, ok := stmts[n-1].(*ast.ExprStmt); ok && !last.Terminated {
			switch last.Expr.(type) {
			case *ast.BlockExpr, *ast.IfExpr, *ast.MatchExpr, *ast.LoopExpr, *ast.UnsafeBlockExpr:
				// Block-like expressions stay statements.
			default:
				block.Tail = last.Expr
				stmts = stmts[:n-1]
			}
		}
	}
	block.Stmts = stmts
	return block, nil
}

// expression is the entry point for parsing a single expression.
func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	left, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.isMatch(token.ASSIGN) {
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Target: left, Value: value}, nil
	}
	return left, nil
}

func (p *Parser) or() (ast.Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isMatch(token.PIPEPIPE) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: token.PIPEPIPE, Right: right}
	}
	return left, nil
}

func (p *Parser) and() (ast.Expr, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.isMatch(token.AMPAMP) {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: token.AMPAMP, Right: right}
	}
	return left, nil
}

func (p *Parser) binaryLevel(next func() (ast.Expr, error), ops []token.TokenType) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.isMatch(ops...) {
		op := p.previous().Type
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binaryLevel(p.comparison, equalityTokenTypes)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binaryLevel(p.term, comparisonTokenTypes)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binaryLevel(p.factor, termTokenTypes)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binaryLevel(p.unary, factorTokenTypes)
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.isMatch(token.BANG, token.MINUS, token.STAR) {
		op := p.previous().Type
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand}, nil
	}
	if p.isMatch(token.AMP) {
		mutable := p.isMatch(token.MUT)
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.ReferenceExpr{Mutable: mutable, Operand: operand}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isMatch(token.DOT):
			field, err := p.consume(token.IDENTIFIER, "expected field or method name after '.'")
			if err != nil {
				return nil, err
			}
			if p.isMatch(token.LPAREN) {
				args, err := p.arguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.MethodCallExpr{Receiver: expr, Method: field.Lexeme, Args: args}
			} else {
				expr = &ast.FieldExpr{Receiver: expr, Field: field.Lexeme}
			}
		case p.isMatch(token.LBRACKET):
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBRACKET, "expected ']' closing index expression"); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Receiver: expr, Index: index}
		case p.isMatch(token.LPAREN):
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) arguments() ([]ast.Expr, error) {
	var args []ast.Expr
	for !p.checkType(token.RPAREN) && !p.isFinished() {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' closing argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

// primary parses literals, paths, macro invocations, grouping, and the
// keyword-led expression forms (if/match/loop/while/for/unsafe/break/
// continue/return/yield).
func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.isMatch(token.TRUE):
		return &ast.Literal{Kind: ast.BoolLit, Value: true}, nil
	case p.isMatch(token.FALSE):
		return &ast.Literal{Kind: ast.BoolLit, Value: false}, nil
	case p.isMatch(token.INT):
		return &ast.Literal{Kind: ast.IntLit, Value: p.previous().Literal}, nil
	case p.isMatch(token.FLOAT):
		return &ast.Literal{Kind: ast.FloatLit, Value: p.previous().Literal}, nil
	case p.isMatch(token.STRING):
		return &ast.Literal{Kind: ast.StringLit, Value: p.previous().Literal}, nil
	case p.isMatch(token.BYTESTRING):
		return &ast.Literal{Kind: ast.ByteStringLit, Value: p.previous().Literal}, nil
	case p.isMatch(token.LPAREN):
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "expected ')' closing parenthesized expression"); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Inner: inner}, nil
	case p.isMatch(token.LBRACE):
		return p.blockExpr()
	case p.isMatch(token.UNSAFE):
		if _, err := p.consume(token.LBRACE, "expected '{' after 'unsafe'"); err != nil {
			return nil, err
		}
		body, err := p.blockExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnsafeBlockExpr{Body: body}, nil
	case p.isMatch(token.IF):
		return p.ifExpr()
	case p.isMatch(token.MATCH):
		return p.matchExpr()
	case p.isMatch(token.LOOP):
		return p.loopExpr()
	case p.isMatch(token.WHILE):
		return p.whileExpr()
	case p.isMatch(token.FOR):
		return p.forExpr()
	case p.isMatch(token.BREAK):
		return p.breakExpr()
	case p.isMatch(token.CONTINUE):
		return &ast.ContinueExpr{}, nil
	case p.isMatch(token.RETURN):
		return p.returnExpr()
	case p.isMatch(token.YIELD):
		return p.yieldExpr()
	case p.checkType(token.IDENTIFIER):
		return p.pathOrMacro()
	}
	cur := p.peek()
	return nil, CreateSyntaxError(cur.Line, cur.Column, fmt.Sprintf("unexpected token %q", cur.Lexeme))
}

// atExprFollowSet reports whether the next token can legally follow break/return/yield
// with no value, so the parser knows not to try to parse one.
func (p *Parser) atExprFollowSet() bool {
	switch p.peek().Type {
	case token.SEMI, token.RBRACE, token.RPAREN, token.RBRACKET, token.COMMA, token.EOF:
		return true
	}
	return false
}

func (p *Parser) breakExpr() (ast.Expr, error) {
	if p.atExprFollowSet() {
		return &ast.BreakExpr{}, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.BreakExpr{Value: value}, nil
}

func (p *Parser) returnExpr() (ast.Expr, error) {
	if p.atExprFollowSet() {
		return &ast.ReturnExpr{}, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnExpr{Value: value}, nil
}

func (p *Parser) yieldExpr() (ast.Expr, error) {
	if p.atExprFollowSet() {
		return &ast.YieldExpr{}, nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.YieldExpr{Value: value}, nil
}

func (p *Parser) ifExpr() (ast.Expr, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after if condition"); err != nil {
		return nil, err
	}
	then, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	expr := &ast.IfExpr{Cond: cond, Then: then}
	if p.isMatch(token.ELSE) {
		if p.isMatch(token.IF) {
			elseExpr, err := p.ifExpr()
			if err != nil {
				return nil, err
			}
			expr.Else = elseExpr
		} else {
			if _, err := p.consume(token.LBRACE, "expected '{' after else"); err != nil {
				return nil, err
			}
			elseBlock, err := p.blockExpr()
			if err != nil {
				return nil, err
			}
			expr.Else = elseBlock
		}
	}
	return expr, nil
}

// matchArmPattern reads raw pattern tokens up to '=>' or a guard's 'if',
// which this grammar never needs to interpret structurally.
func (p *Parser) matchArmPattern() []token.Token {
	var toks []token.Token
	for !p.isFinished() && p.peek().Type != token.FATARROW && p.peek().Type != token.IF {
		toks = append(toks, p.advance())
	}
	return toks
}

func (p *Parser) matchExpr() (ast.Expr, error) {
	scrutinee, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after match scrutinee"); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for !p.checkType(token.RBRACE) && !p.isFinished() {
		pattern := p.matchArmPattern()
		var guard ast.Expr
		if p.isMatch(token.IF) {
			guard, err = p.expression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.consume(token.FATARROW, "expected '=>' in match arm"); err != nil {
			return nil, err
		}
		body, err := p.expression()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Guard: guard, Body: body})
		p.isMatch(token.COMMA)
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing match"); err != nil {
		return nil, err
	}
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms}, nil
}

func (p *Parser) loopExpr() (ast.Expr, error) {
	if _, err := p.consume(token.LBRACE, "expected '{' after 'loop'"); err != nil {
		return nil, err
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LoopExpr{Kind: ast.LoopBare, Body: body}, nil
}

func (p *Parser) whileExpr() (ast.Expr, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LoopExpr{Kind: ast.LoopWhile, Cond: cond, Body: body}, nil
}

func (p *Parser) forExpr() (ast.Expr, error) {
	var pattern []token.Token
	for !p.isFinished() && p.peek().Type != token.IN {
		pattern = append(pattern, p.advance())
	}
	if _, err := p.consume(token.IN, "expected 'in' in for loop"); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after for-loop iterator"); err != nil {
		return nil, err
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LoopExpr{Kind: ast.LoopFor, Pattern: pattern, Iter: iter, Body: body}, nil
}

// pathOrMacro parses a (possibly multi-segment) path, recognising a
// trailing `!(...)` as a macro invocation rather than continuing to
// parse it as a call.
func (p *Parser) pathOrMacro() (ast.Expr, error) {
	first, err := p.consume(token.IDENTIFIER, "expected an identifier")
	if err != nil {
		return nil, err
	}
	segments := []string{first.Lexeme}
	for p.isMatch(token.DCOLON) {
		seg, err := p.consume(token.IDENTIFIER, "expected an identifier after '::'")
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg.Lexeme)
	}

	if p.isMatch(token.BANG) {
		if _, err := p.consume(token.LPAREN, "expected '(' after macro name"); err != nil {
			return nil, err
		}
		toks, err := p.rawTokensUntilBalanced()
		if err != nil {
			return nil, err
		}
		return &ast.MacroInvocationExpr{Path: strings.Join(segments, "::"), Tokens: toks}, nil
	}

	return &ast.PathExpr{Segments: segments}, nil
}

// rawTokensUntilBalanced consumes and returns every token up to the ')'
// that balances the '(' the caller already consumed, tracking nested
// paren/brace/bracket depth so a macro can embed arbitrary sub-expressions
// (including nested calls) without this scan ending early.
func (p *Parser) rawTokensUntilBalanced() ([]token.Token, error) {
	depth := 0
	var toks []token.Token
	for {
		if p.isFinished() {
			cur := p.peek()
			return nil, CreateSyntaxError(cur.Line, cur.Column, "unterminated macro invocation")
		}
		switch p.peek().Type {
		case token.LPAREN, token.LBRACE, token.LBRACKET:
			depth++
		case token.RPAREN:
			if depth == 0 {
				p.advance()
				return toks, nil
			}
			depth--
		case token.RBRACE, token.RBRACKET:
			depth--
		}
		toks = append(toks, p.advance())
	}
}
