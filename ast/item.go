package ast

// Param is a single function parameter. Type is kept as raw text.
type Param struct {
	Name string
	Type string
}

// FuncItem is a `fn name(params...) -> ReturnType { body }` declaration.
// Body is nil for a trait method signature with no default body.
type FuncItem struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       *BlockExpr
	attrs      []Attribute
}

func (i *FuncItem) Accept(v ItemVisitor) any { return v.VisitFunc(i) }
func (i *FuncItem) itemNode()                {}
func (i *FuncItem) Attrs() *[]Attribute      { return &i.attrs }

// ConstItem is `const NAME: Type = value;`.
type ConstItem struct {
	Name  string
	Type  string
	Value Expr
	attrs []Attribute
}

func (i *ConstItem) Accept(v ItemVisitor) any { return v.VisitConst(i) }
func (i *ConstItem) itemNode()                {}
func (i *ConstItem) Attrs() *[]Attribute      { return &i.attrs }

// StaticItem is `static NAME: Type = value;`.
type StaticItem struct {
	Name  string
	Type  string
	Value Expr
	attrs []Attribute
}

func (i *StaticItem) Accept(v ItemVisitor) any { return v.VisitStatic(i) }
func (i *StaticItem) itemNode()                {}
func (i *StaticItem) Attrs() *[]Attribute      { return &i.attrs }

// ModItem is `mod name { items... }`.
type ModItem struct {
	Name  string
	Items []Item
	attrs []Attribute
}

func (i *ModItem) Accept(v ItemVisitor) any { return v.VisitMod(i) }
func (i *ModItem) itemNode()                {}
func (i *ModItem) Attrs() *[]Attribute      { return &i.attrs }

// UseItem is a `use path::to::thing;` import declaration.
type UseItem struct {
	Path  string
	attrs []Attribute
}

func (i *UseItem) Accept(v ItemVisitor) any { return v.VisitUse(i) }
func (i *UseItem) itemNode()                {}
func (i *UseItem) Attrs() *[]Attribute      { return &i.attrs }

// ImplItem is `impl Trait? for Type { items... }`. Trait is empty for an
// inherent impl block.
type ImplItem struct {
	Trait string
	Type  string
	Items []Item
	attrs []Attribute
}

func (i *ImplItem) Accept(v ItemVisitor) any { return v.VisitImpl(i) }
func (i *ImplItem) itemNode()                {}
func (i *ImplItem) Attrs() *[]Attribute      { return &i.attrs }

// TypeItem is a `type Name = ...;` alias. Definition is kept as raw text.
type TypeItem struct {
	Name       string
	Definition string
	attrs      []Attribute
}

func (i *TypeItem) Accept(v ItemVisitor) any { return v.VisitType(i) }
func (i *TypeItem) itemNode()                {}
func (i *TypeItem) Attrs() *[]Attribute      { return &i.attrs }

// TraitItem is `trait Name { items... }`.
type TraitItem struct {
	Name  string
	Items []Item
	attrs []Attribute
}

func (i *TraitItem) Accept(v ItemVisitor) any { return v.VisitTrait(i) }
func (i *TraitItem) itemNode()                {}
func (i *TraitItem) Attrs() *[]Attribute      { return &i.attrs }

// File is the root of a single source file's syntax tree: an ordered
// list of top-level items.
type File struct {
	Items []Item
}
