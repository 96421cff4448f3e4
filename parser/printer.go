package parser

import (
	"fmt"
	"strconv"
	"strings"

	"r2d2/ast"
)

// Printer walks a syntax tree and reconstructs source text, implementing
// ast.ExprVisitor/StmtVisitor/ItemVisitor the same way the teacher's own
// astPrinter implements ast.Visitor — one Visit method per node variant
// — except each method appends real source text to a strings.Builder
// instead of a JSON representation, since the obfuscation passes need
// their rewritten trees to come back out as compilable source.
type Printer struct {
	out    strings.Builder
	indent int
}

// NewPrinter returns a ready-to-use Printer.
func NewPrinter() *Printer { return &Printer{} }

// Print renders an entire file back to source text.
func (pr *Printer) Print(file *ast.File) string {
	for i, item := range file.Items {
		if i > 0 {
			pr.out.WriteString("\n")
		}
		pr.writeAttrs(item)
		item.Accept(pr)
		pr.out.WriteString("\n")
	}
	return pr.out.String()
}

// PrintExpr renders a single expression, used by passes and tests that
// don't need a whole file round-tripped.
func (pr *Printer) PrintExpr(e ast.Expr) string {
	e.Accept(pr)
	return pr.out.String()
}

func (pr *Printer) writeLine(s string) {
	pr.out.WriteString(strings.Repeat("    ", pr.indent))
	pr.out.WriteString(s)
}

func (pr *Printer) writeAttrs(node any) {
	h, ok := ast.AttributesOf(node)
	if !ok {
		return
	}
	for _, a := range *h.Attrs() {
		pr.writeLine("#[" + a.Name)
		if a.Args != "" {
			pr.out.WriteString("(" + a.Args + ")")
		}
		pr.out.WriteString("]\n")
	}
}

// ---- ItemVisitor ----

func (pr *Printer) VisitFunc(it *ast.FuncItem) any {
	pr.writeLine("fn " + it.Name + "(")
	for i, p := range it.Params {
		if i > 0 {
			pr.out.WriteString(", ")
		}
		pr.out.WriteString(p.Name + ": " + p.Type)
	}
	pr.out.WriteString(")")
	if it.ReturnType != "" {
		pr.out.WriteString(" -> " + it.ReturnType)
	}
	pr.out.WriteString(" ")
	if it.Body != nil {
		pr.printBlock(it.Body)
	}
	return nil
}

func (pr *Printer) VisitConst(it *ast.ConstItem) any {
	pr.writeLine(fmt.Sprintf("const %s: %s = ", it.Name, it.Type))
	it.Value.Accept(pr)
	pr.out.WriteString(";")
	return nil
}

func (pr *Printer) VisitStatic(it *ast.StaticItem) any {
	pr.writeLine(fmt.Sprintf("static %s: %s = ", it.Name, it.Type))
	it.Value.Accept(pr)
	pr.out.WriteString(";")
	return nil
}

func (pr *Printer) VisitMod(it *ast.ModItem) any {
	pr.writeLine("mod " + it.Name + " {\n")
	pr.indent++
	for _, inner := range it.Items {
		pr.writeAttrs(inner)
		inner.Accept(pr)
		pr.out.WriteString("\n")
	}
	pr.indent--
	pr.writeLine("}")
	return nil
}

func (pr *Printer) VisitUse(it *ast.UseItem) any {
	pr.writeLine("use " + it.Path + ";")
	return nil
}

func (pr *Printer) VisitImpl(it *ast.ImplItem) any {
	if it.Trait != "" {
		pr.writeLine(fmt.Sprintf("impl %s for %s {\n", it.Trait, it.Type))
	} else {
		pr.writeLine(fmt.Sprintf("impl %s {\n", it.Type))
	}
	pr.indent++
	for _, inner := range it.Items {
		pr.writeAttrs(inner)
		inner.Accept(pr)
		pr.out.WriteString("\n")
	}
	pr.indent--
	pr.writeLine("}")
	return nil
}

func (pr *Printer) VisitType(it *ast.TypeItem) any {
	pr.writeLine(fmt.Sprintf("type %s = %s;", it.Name, it.Definition))
	return nil
}

func (pr *Printer) VisitTrait(it *ast.TraitItem) any {
	pr.writeLine("trait " + it.Name + " {\n")
	pr.indent++
	for _, inner := range it.Items {
		pr.writeAttrs(inner)
		inner.Accept(pr)
		pr.out.WriteString("\n")
	}
	pr.indent--
	pr.writeLine("}")
	return nil
}

// ---- StmtVisitor ----

func (pr *Printer) VisitLet(s *ast.LetStmt) any {
	pr.writeAttrs(s)
	pr.writeLine("let " + s.Name)
	if s.Type != "" {
		pr.out.WriteString(": " + s.Type)
	}
	if s.Value != nil {
		pr.out.WriteString(" = ")
		s.Value.Accept(pr)
	}
	pr.out.WriteString(";")
	return nil
}

func (pr *Printer) VisitItemStmt(s *ast.ItemStmt) any {
	pr.writeAttrs(s)
	pr.writeAttrs(s.Item)
	pr.writeLine("")
	s.Item.Accept(pr)
	return nil
}

func (pr *Printer) VisitExprStmt(s *ast.ExprStmt) any {
	pr.writeAttrs(s)
	pr.writeLine("")
	s.Expr.Accept(pr)
	if s.Terminated {
		pr.out.WriteString(";")
	}
	return nil
}

// ---- ExprVisitor ----

func (pr *Printer) printBlock(b *ast.BlockExpr) {
	pr.out.WriteString("{\n")
	pr.indent++
	for _, s := range b.Stmts {
		s.Accept(pr)
		pr.out.WriteString("\n")
	}
	if b.Tail != nil {
		pr.writeLine("")
		b.Tail.Accept(pr)
		pr.out.WriteString("\n")
	}
	pr.indent--
	pr.writeLine("}")
}

func (pr *Printer) VisitLiteral(e *ast.Literal) any {
	switch e.Kind {
	case ast.StringLit:
		pr.out.WriteString(strconv.Quote(e.Value.(string)))
	case ast.ByteStringLit:
		pr.out.WriteString("b" + strconv.Quote(e.Value.(string)))
	case ast.IntLit:
		pr.out.WriteString(fmt.Sprintf("%d", e.Value))
	case ast.FloatLit:
		pr.out.WriteString(fmt.Sprintf("%v", e.Value))
	case ast.BoolLit:
		pr.out.WriteString(fmt.Sprintf("%v", e.Value))
	}
	return nil
}

func (pr *Printer) VisitPath(e *ast.PathExpr) any {
	pr.out.WriteString(strings.Join(e.Segments, "::"))
	return nil
}

func (pr *Printer) VisitCall(e *ast.CallExpr) any {
	e.Callee.Accept(pr)
	pr.printArgs(e.Args)
	return nil
}

func (pr *Printer) printArgs(args []ast.Expr) {
	pr.out.WriteString("(")
	for i, a := range args {
		if i > 0 {
			pr.out.WriteString(", ")
		}
		a.Accept(pr)
	}
	pr.out.WriteString(")")
}

func (pr *Printer) VisitMethodCall(e *ast.MethodCallExpr) any {
	e.Receiver.Accept(pr)
	pr.out.WriteString("." + e.Method)
	pr.printArgs(e.Args)
	return nil
}

func (pr *Printer) VisitBlock(e *ast.BlockExpr) any {
	pr.printBlock(e)
	return nil
}

func (pr *Printer) VisitIf(e *ast.IfExpr) any {
	pr.out.WriteString("if ")
	e.Cond.Accept(pr)
	pr.out.WriteString(" ")
	pr.printBlock(e.Then)
	if e.Else != nil {
		pr.out.WriteString(" else ")
		e.Else.Accept(pr)
	}
	return nil
}

func (pr *Printer) VisitMatch(e *ast.MatchExpr) any {
	pr.out.WriteString("match ")
	e.Scrutinee.Accept(pr)
	pr.out.WriteString(" {\n")
	pr.indent++
	for _, arm := range e.Arms {
		pr.writeLine("")
		for _, t := range arm.Pattern {
			pr.out.WriteString(t.Lexeme + " ")
		}
		if arm.Guard != nil {
			pr.out.WriteString("if ")
			arm.Guard.Accept(pr)
			pr.out.WriteString(" ")
		}
		pr.out.WriteString("=> ")
		arm.Body.Accept(pr)
		pr.out.WriteString(",\n")
	}
	pr.indent--
	pr.writeLine("}")
	return nil
}

func (pr *Printer) VisitLoop(e *ast.LoopExpr) any {
	switch e.Kind {
	case ast.LoopWhile:
		pr.out.WriteString("while ")
		e.Cond.Accept(pr)
		pr.out.WriteString(" ")
	case ast.LoopFor:
		pr.out.WriteString("for ")
		for _, t := range e.Pattern {
			pr.out.WriteString(t.Lexeme + " ")
		}
		pr.out.WriteString("in ")
		e.Iter.Accept(pr)
		pr.out.WriteString(" ")
	default:
		pr.out.WriteString("loop ")
	}
	pr.printBlock(e.Body)
	return nil
}

func (pr *Printer) VisitUnsafeBlock(e *ast.UnsafeBlockExpr) any {
	pr.out.WriteString("unsafe ")
	pr.printBlock(e.Body)
	return nil
}

func (pr *Printer) VisitMacroInvocation(e *ast.MacroInvocationExpr) any {
	pr.out.WriteString(e.Path + "!(")
	if e.Format != nil {
		pr.out.WriteString(strconv.Quote(e.Format.Template))
		for _, p := range e.Format.Positional {
			pr.out.WriteString(", ")
			p.Accept(pr)
		}
		for _, n := range e.Format.Named {
			pr.out.WriteString(", " + n.Name + " = ")
			n.Value.Accept(pr)
		}
	} else {
		for i, t := range e.Tokens {
			if i > 0 {
				pr.out.WriteString(" ")
			}
			pr.out.WriteString(t.Lexeme)
		}
	}
	pr.out.WriteString(")")
	return nil
}

func (pr *Printer) VisitAssign(e *ast.AssignExpr) any {
	e.Target.Accept(pr)
	pr.out.WriteString(" = ")
	e.Value.Accept(pr)
	return nil
}

func (pr *Printer) VisitBinary(e *ast.BinaryExpr) any {
	e.Left.Accept(pr)
	pr.out.WriteString(" " + string(e.Op) + " ")
	e.Right.Accept(pr)
	return nil
}

func (pr *Printer) VisitUnary(e *ast.UnaryExpr) any {
	pr.out.WriteString(string(e.Op))
	e.Operand.Accept(pr)
	return nil
}

func (pr *Printer) VisitReference(e *ast.ReferenceExpr) any {
	pr.out.WriteString("&")
	if e.Mutable {
		pr.out.WriteString("mut ")
	}
	e.Operand.Accept(pr)
	return nil
}

func (pr *Printer) VisitBreak(e *ast.BreakExpr) any {
	pr.out.WriteString("break")
	if e.Value != nil {
		pr.out.WriteString(" ")
		e.Value.Accept(pr)
	}
	return nil
}

func (pr *Printer) VisitContinue(e *ast.ContinueExpr) any {
	pr.out.WriteString("continue")
	return nil
}

func (pr *Printer) VisitReturn(e *ast.ReturnExpr) any {
	pr.out.WriteString("return")
	if e.Value != nil {
		pr.out.WriteString(" ")
		e.Value.Accept(pr)
	}
	return nil
}

func (pr *Printer) VisitYield(e *ast.YieldExpr) any {
	pr.out.WriteString("yield")
	if e.Value != nil {
		pr.out.WriteString(" ")
		e.Value.Accept(pr)
	}
	return nil
}

func (pr *Printer) VisitParen(e *ast.ParenExpr) any {
	pr.out.WriteString("(")
	e.Inner.Accept(pr)
	pr.out.WriteString(")")
	return nil
}

func (pr *Printer) VisitField(e *ast.FieldExpr) any {
	e.Receiver.Accept(pr)
	pr.out.WriteString("." + e.Field)
	return nil
}

func (pr *Printer) VisitIndex(e *ast.IndexExpr) any {
	e.Receiver.Accept(pr)
	pr.out.WriteString("[")
	e.Index.Accept(pr)
	pr.out.WriteString("]")
	return nil
}

func (pr *Printer) VisitRaw(e *ast.RawExpr) any {
	pr.out.WriteString(e.Source)
	return nil
}

var _ ast.ExprVisitor = (*Printer)(nil)
var _ ast.StmtVisitor = (*Printer)(nil)
var _ ast.ItemVisitor = (*Printer)(nil)
