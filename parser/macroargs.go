package parser

import (
	"fmt"

	"r2d2/ast"
	"r2d2/token"
)

// splitTopLevelCommas splits tokens on commas that are not nested inside
// parens/braces/brackets, the way an argument list needs to be split
// before each argument is parsed as its own expression.
func splitTopLevelCommas(tokens []token.Token) [][]token.Token {
	var groups [][]token.Token
	var current []token.Token
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LPAREN, token.LBRACE, token.LBRACKET:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACKET:
			depth--
		}
		if tok.Type == token.COMMA && depth == 0 {
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// parseExprTokens parses a standalone expression out of a bare token
// slice, the way a macro argument is parsed once it's been split out of
// the macro's raw token stream.
func parseExprTokens(tokens []token.Token) (ast.Expr, error) {
	withEOF := append(append([]token.Token{}, tokens...), token.Create(token.EOF, 0, 0))
	sub := Make(withEOF)
	expr, err := sub.expression()
	if err != nil {
		return nil, err
	}
	if !sub.isFinished() {
		cur := sub.peek()
		return nil, CreateSyntaxError(cur.Line, cur.Column, "unexpected trailing tokens in macro argument")
	}
	return expr, nil
}

// ParseFormatArgs decomposes the raw argument tokens of a recognised
// format macro (`format!`, `println!`, `write!`, `panic!`) into its
// literal template and positional/named arguments. It lives here rather
// than in package ast because decomposing an argument list means parsing
// expressions, and ast cannot depend on parser without a cycle.
func ParseFormatArgs(tokens []token.Token) (ast.FormatArgs, error) {
	groups := splitTopLevelCommas(tokens)
	if len(groups) == 0 || len(groups[0]) != 1 || groups[0][0].Type != token.STRING {
		return ast.FormatArgs{}, ast.ErrMalformedMacroArgs{Macro: "format", Err: fmt.Errorf("requires a string literal template as its first argument")}
	}
	out := ast.FormatArgs{Template: groups[0][0].Literal.(string)}

	seenNamed := false
	for _, g := range groups[1:] {
		if len(g) == 0 {
			continue
		}
		if len(g) >= 2 && g[0].Type == token.IDENTIFIER && g[1].Type == token.ASSIGN {
			value, err := parseExprTokens(g[2:])
			if err != nil {
				return ast.FormatArgs{}, ast.ErrMalformedMacroArgs{Macro: "format", Err: err}
			}
			out.Named = append(out.Named, ast.NamedArg{Name: g[0].Lexeme, Value: value})
			seenNamed = true
			continue
		}
		if seenNamed {
			return ast.FormatArgs{}, ast.ErrMalformedMacroArgs{Macro: "format", Err: fmt.Errorf("positional argument follows a named argument")}
		}
		value, err := parseExprTokens(g)
		if err != nil {
			return ast.FormatArgs{}, ast.ErrMalformedMacroArgs{Macro: "format", Err: err}
		}
		out.Positional = append(out.Positional, value)
	}
	return out, nil
}

// ParseAssertArgs decomposes the raw argument tokens of an `assert!`,
// `debug_assert!`, `assert_eq!`, or `assert_ne!` invocation, keyed by
// which of the four macro names the caller already matched.
func ParseAssertArgs(macroName string, tokens []token.Token) (ast.AssertArgs, error) {
	groups := splitTopLevelCommas(tokens)
	if len(groups) == 0 {
		return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: fmt.Errorf("requires at least one argument")}
	}

	switch macroName {
	case "assert", "debug_assert":
		cond, err := parseExprTokens(groups[0])
		if err != nil {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: err}
		}
		out := ast.AssertArgs{Kind: ast.AssertPlain, Left: cond}
		if msg, err := assertMessage(groups[1:]); err != nil {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: err}
		} else {
			out.Message = msg
		}
		return out, nil
	case "assert_eq", "assert_ne":
		if len(groups) < 2 {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: fmt.Errorf("requires two comparison arguments")}
		}
		left, err := parseExprTokens(groups[0])
		if err != nil {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: err}
		}
		right, err := parseExprTokens(groups[1])
		if err != nil {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: err}
		}
		kind := ast.AssertEq
		if macroName == "assert_ne" {
			kind = ast.AssertNe
		}
		out := ast.AssertArgs{Kind: kind, Left: left, Right: right}
		if msg, err := assertMessage(groups[2:]); err != nil {
			return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: err}
		} else {
			out.Message = msg
		}
		return out, nil
	default:
		return ast.AssertArgs{}, ast.ErrMalformedMacroArgs{Macro: macroName, Err: fmt.Errorf("unrecognised assert macro %q", macroName)}
	}
}

func assertMessage(rest [][]token.Token) (*ast.FormatArgs, error) {
	if len(rest) == 0 {
		return nil, nil
	}
	var flat []token.Token
	for i, g := range rest {
		if i > 0 {
			flat = append(flat, token.Create(token.COMMA, 0, 0))
		}
		flat = append(flat, g...)
	}
	args, err := ParseFormatArgs(flat)
	if err != nil {
		return nil, err
	}
	return &args, nil
}
