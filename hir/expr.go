// Copyright (c) 2024 The HIRXC Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hir

import "go/token"

// Usage is the value-usage tag attached to expression nodes by pass B (see
// spec.md §4.4).
type Usage uint8

const (
	UsageUnknown Usage = iota
	UsageMove
	UsageMutate
	UsageBorrow
)

// Expr is the sum type of expression-tree node kinds. A *hir.Expr value
// passed around as `*Expr` (pointer to the interface variable stored in a
// parent's child field) is the "mutable handle to the owning slot" the
// design notes call for: a pass replaces a subtree by assigning through
// that pointer, the same way golang.org/x/tools/go/ast/astutil's Cursor
// lets an ast.Node be replaced in place — the HIR isn't Go source, so we
// can't reuse astutil directly, but we keep its Cursor.Replace() shape.
type Expr interface {
	isExpr()
	// ResultType returns the node's result type, filled in by the
	// type-checking frontend and rewritten in place by later passes.
	ResultType() Type
	SetResultType(Type)
	// GetUsage/SetUsage carry the value-usage tag from pass B.
	GetUsage() Usage
	SetUsage(Usage)
	Pos() token.Pos
}

// exprBase is embedded by every concrete node to provide the common
// ResultType/Usage/Pos bookkeeping without repeating it per kind.
type exprBase struct {
	Type  Type
	Usage Usage
	At    token.Pos
}

func (e *exprBase) ResultType() Type       { return e.Type }
func (e *exprBase) SetResultType(t Type)   { e.Type = t }
func (e *exprBase) GetUsage() Usage        { return e.Usage }
func (e *exprBase) SetUsage(u Usage)       { e.Usage = u }
func (e *exprBase) Pos() token.Pos         { return e.At }

// ExprLiteral is a literal constant expression.
type ExprLiteral struct {
	exprBase
	Value *Literal
}

func (*ExprLiteral) isExpr() {}

// ExprVariable is a reference to a local variable / function parameter by
// slot index (slots are dense per function body; closurelower renumbers
// them when extracting a closure body).
type ExprVariable struct {
	exprBase
	Slot int
	Name string
}

func (*ExprVariable) isExpr() {}

// ExprPathValue is a reference to an item (const, static, function) by path.
type ExprPathValue struct {
	exprBase
	Path *Path
	Kind PathValueKind
}

// PathValueKind distinguishes what sort of item a PathValue names, used by
// constprop to recognize references to promoted statics.
type PathValueKind uint8

const (
	PathValueFunction PathValueKind = iota
	PathValueConst
	PathValueStatic
	PathValueUnitVariant
)

func (*ExprPathValue) isExpr() {}

// ExprBlock is `{ stmts...; tail }`. Stmts are evaluated for side effect
// (usage Move); Tail (nilable) inherits the block's own usage context.
type ExprBlock struct {
	exprBase
	Stmts []Expr
	Tail  Expr
}

func (*ExprBlock) isExpr() {}

// ExprReturn is `return value`.
type ExprReturn struct {
	exprBase
	Value Expr // nilable
}

func (*ExprReturn) isExpr() {}

// ExprAssign is `lhs = rhs`.
type ExprAssign struct {
	exprBase
	LHS, RHS Expr
}

func (*ExprAssign) isExpr() {}

// ExprLet is `let pat [: ty] = value;` used as a statement or, in `if let` /
// `while let` desugarings, as the condition of a Match.
type ExprLet struct {
	exprBase
	Pat   Pattern
	Value Expr
}

func (*ExprLet) isExpr() {}

// MatchArm is one `pattern [if guard] => body` arm of a Match.
type MatchArm struct {
	Pat   Pattern
	Guard Expr // nilable
	Body  Expr
}

// ExprMatch is a full `match scrutinee { arms... }`.
type ExprMatch struct {
	exprBase
	Scrutinee Expr
	Arms      []MatchArm
}

func (*ExprMatch) isExpr() {}

// CastKind distinguishes a numeric `as` cast from a pointer cast, which the
// middle-end treats differently (the constant evaluator folds a numeric
// cast and passes a pointer cast's value through). An implicit unsizing
// coercion is an ExprUnsize node, not a cast.
type CastKind uint8

const (
	CastNumeric CastKind = iota
	CastPointer
)

// ExprCast is `value as Ty`.
type ExprCast struct {
	exprBase
	Value Expr
	Kind  CastKind
}

func (*ExprCast) isExpr() {}

// ExprUnsize is an (implicit or explicit) unsizing coercion, e.g.
// `Box<[T; 3]> -> Box<[T]>` or `&Struct -> &dyn Trait`.
type ExprUnsize struct {
	exprBase
	Value Expr
}

func (*ExprUnsize) isExpr() {}

// ExprTuple is a tuple literal `(a, b, c)`.
type ExprTuple struct {
	exprBase
	Vals []Expr
}

func (*ExprTuple) isExpr() {}

// ExprArrayList is an array literal `[a, b, c]` (as opposed to the
// `[v; N]`-repeat form, modeled separately as ExprArrayRepeat).
type ExprArrayList struct {
	exprBase
	Vals []Expr
}

func (*ExprArrayList) isExpr() {}

// ExprArrayRepeat is `[value; N]`.
type ExprArrayRepeat struct {
	exprBase
	Value Expr
	Count *ConstExpr
}

func (*ExprArrayRepeat) isExpr() {}

// FieldInit is one `name: value` entry of a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
}

// ExprStructLiteral is `Path { fields..., ..base }`.
type ExprStructLiteral struct {
	exprBase
	StructPath *Path
	Fields     []FieldInit
	// Base is the optional `..base` functional-update expression.
	Base Expr
	// OmittedFields lists the struct's field names not explicitly
	// initialized (and thus taken from Base), needed to decide Base's usage
	// tag (spec.md §4.4 StructLiteral rule).
	OmittedFields []FieldNilability
}

// FieldNilability records, for an omitted struct-literal field, whether its
// declared type is Copy (used only to decide the Base usage tag; the name
// is slightly misleading relative to nilability analyses in other domains
// but kept terse to match the struct literal's own field naming style).
type FieldNilability struct {
	Name   string
	IsCopy bool
}

func (*ExprStructLiteral) isExpr() {}

// ExprTupleVariant is `EnumVariant(a, b)` or `TupleStruct(a, b)`.
type ExprTupleVariant struct {
	exprBase
	Path *Path
	Args []Expr
}

func (*ExprTupleVariant) isExpr() {}

// FieldAccessKind distinguishes a named struct field from a positional
// tuple/tuple-struct field.
type FieldAccessKind uint8

const (
	FieldNamed FieldAccessKind = iota
	FieldIndexed
)

// ExprField is `base.field` or `base.0`.
type ExprField struct {
	exprBase
	Base  Expr
	Kind  FieldAccessKind
	Name  string
	Index int
}

func (*ExprField) isExpr() {}

// ExprIndex is `base[index]`.
type ExprIndex struct {
	exprBase
	Base, Index Expr
	// FullRange is true for `base[..]`, the only Index shape the
	// const-evaluator's constant-folding rule (spec.md §4.8) treats as
	// potentially constant.
	FullRange bool
}

func (*ExprIndex) isExpr() {}

// ExprDeref is `*base`.
type ExprDeref struct {
	exprBase
	Base Expr
}

func (*ExprDeref) isExpr() {}

// ExprBorrow is `&base` / `&mut base`.
type ExprBorrow struct {
	exprBase
	Kind BorrowKind
	Base Expr
}

func (*ExprBorrow) isExpr() {}

// BinOpKind enumerates the binary operators relevant to usage annotation
// (comparisons push Borrow, arithmetic pushes Move) and constant folding.
type BinOpKind uint8

const (
	BinAdd BinOpKind = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLogicalAnd
	BinLogicalOr
)

// IsComparison reports whether this operator is one of the six comparison
// operators (as opposed to arithmetic/bitwise).
func (k BinOpKind) IsComparison() bool {
	switch k {
	case BinEq, BinNe, BinLt, BinLe, BinGt, BinGe:
		return true
	}
	return false
}

// ExprBinOp is a binary operator application.
type ExprBinOp struct {
	exprBase
	Op          BinOpKind
	Left, Right Expr
}

func (*ExprBinOp) isExpr() {}

// UniOpKind enumerates the unary operators.
type UniOpKind uint8

const (
	UniNeg UniOpKind = iota
	UniNot
	UniInv
)

// ExprUniOp is a unary operator application.
type ExprUniOp struct {
	exprBase
	Op    UniOpKind
	Value Expr
}

func (*ExprUniOp) isExpr() {}

// CallableTraitKind distinguishes which of Fn/FnMut/FnOnce a CallValue
// dispatches through; Unknown is only valid before the closure-class
// fallback described in spec.md §4.10 resolves it.
type CallableTraitKind uint8

const (
	CallableUnknown CallableTraitKind = iota
	CallableFn
	CallableFnMut
	CallableFnOnce
)

// ExprCallValue is `callee(args...)` where callee is not a statically
// known function/method path (a closure, a `Box<dyn Fn>`, a generic
// `F: Fn(...)`...). Eliminated by pass G (UFCS rewriting).
type ExprCallValue struct {
	exprBase
	Callee     Expr
	Args       []Expr
	TraitUsed  CallableTraitKind
}

func (*ExprCallValue) isExpr() {}

// ReceiverKind is how a method's receiver is declared, used by both usage
// annotation and UFCS rewriting.
type ReceiverKind uint8

const (
	ReceiverValue ReceiverKind = iota
	ReceiverBox
	ReceiverBorrowShared
	ReceiverBorrowUnique
)

// ExprCallMethod is `receiver.method(args...)`. Eliminated by pass G.
type ExprCallMethod struct {
	exprBase
	Receiver     Expr
	Method       string
	Args         []Expr
	ReceiverKind ReceiverKind
	// ArgTypeCache mirrors the precomputed argument-type cache the UFCS
	// pass must preserve verbatim into the rewritten CallPath node.
	ArgTypeCache []Type
	// ResolvedTrait is filled in by method lookup: nil for an inherent
	// method (ufcsrewrite builds a PathUfcsInherent callee), set to the
	// trait the method was found on for a trait method (ufcsrewrite
	// builds a PathUfcsKnown callee instead).
	ResolvedTrait *GenericPath
}

func (*ExprCallMethod) isExpr() {}

// ExprCallPath is `<Self as Trait>::method(args...)` / `Type::method(args...)`,
// the uniform call shape every method/functor call is rewritten into by
// pass G.
type ExprCallPath struct {
	exprBase
	Callee       *Path
	Args         []Expr
	ArgTypeCache []Type
}

func (*ExprCallPath) isExpr() {}

// ExprEmplace is a placement-new style construction used for boxed
// allocation sites (`box EXPR`), carried through reborrow insertion
// (spec.md §4.9 lists `Emplace.value` as an apply site).
type ExprEmplace struct {
	exprBase
	Value Expr
}

func (*ExprEmplace) isExpr() {}

// ExprClosure is a not-yet-lowered closure literal. After pass C no
// ExprClosure node retains Body; ObjPath/Captures are populated instead
// (spec.md §3 invariant for pass C).
type ExprClosure struct {
	exprBase
	Params   []ClosureParam
	RetType  Type
	Body     Expr // nil after lowering
	ObjPath  *Path
	Captures []ClosureCapture
}

// ClosureParam is one parameter of a closure literal.
type ClosureParam struct {
	Name string
	Ty   Type
	// Slot is this parameter's dense per-function-body variable slot, in
	// the same space as ExprVariable.Slot and PatternBinding.Slot.
	Slot int
}

// ClosureCapture is one captured free variable, with the borrow form
// decided by its ValueUsage (spec.md §4.5 step 3).
type ClosureCapture struct {
	Name      string
	OuterSlot int
	Usage     Usage
	FieldType Type
}

func (*ExprClosure) isExpr() {}

// ExprGenerator is a not-yet-lowered generator (coroutine) literal.
type ExprGenerator struct {
	exprBase
	YieldType  Type
	ReturnType Type
	Body       Expr // nil after lowering
	ObjPath    *Path
	Captures   []ClosureCapture
}

func (*ExprGenerator) isExpr() {}

// ExprYield is `yield value` inside a generator body.
type ExprYield struct {
	exprBase
	Value Expr
}

func (*ExprYield) isExpr() {}
