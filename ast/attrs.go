package ast

// Attribute is a single `#[name(...)]`-shaped marker attached to an
// item, statement, or (for the handful of variants the grammar allows
// it on) an expression. Args is the raw, unparsed text between the
// parens, if any — attributes besides `shuffle` never need their
// arguments interpreted by this core.
type Attribute struct {
	Name string
	Args string
}
