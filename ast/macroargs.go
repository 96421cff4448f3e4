package ast

// NamedArg is one `name = value` argument to a format macro, e.g. the
// `width = 4` in `format!("{width}", width = 4)`.
type NamedArg struct {
	Name  string
	Value Expr
}

// FormatArgs is the decomposed argument list of one of the four
// recognised format macros (`format!`, `println!`, `write!`, `panic!`).
// Template is the literal format-string argument; Positional and Named
// hold the remaining arguments in source order. Parsing FormatArgs out
// of a macro's raw token stream needs full expression parsing, so the
// logic that populates it lives in the parser package, not here — this
// type is only the data the parser hands back.
type FormatArgs struct {
	Template   string
	Positional []Expr
	Named      []NamedArg
}

// AssertKind distinguishes the three assert-family macros this core
// recognises.
type AssertKind int

const (
	AssertPlain AssertKind = iota
	AssertEq
	AssertNe
)

// AssertArgs is the decomposed argument list of an `assert!`,
// `assert_eq!`, or `assert_ne!` invocation. Left is the sole condition
// for AssertPlain; Left/Right are the two compared expressions for
// AssertEq/AssertNe. Message holds any trailing format arguments.
type AssertArgs struct {
	Kind    AssertKind
	Left    Expr
	Right   Expr
	Message *FormatArgs
}
