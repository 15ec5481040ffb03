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

// Package hir defines the in-memory shape of a type-checked crate as handed
// to the middle-end by the parser/name-resolution frontend: modules, items,
// impls, expressions, types, paths and patterns. Nothing in this package
// mutates the graph on its own — that is left to the passes in the sibling
// packages, driven by the hirvisit traversal.
package hir

// Type is the algebraic type-expression sum type described for TypeRef in
// the data model. It is modeled the way go/types.Type is: a closed interface
// implemented by one concrete struct per variant, dispatched with a type
// switch rather than virtual methods, so passes can pattern-match on shape
// directly instead of routing behavior through the interface.
type Type interface {
	isType()
	// Ivars reports whether this type (recursively) still contains an
	// inference variable anywhere within it.
	Ivars() bool
}

// Infer is an unresolved type inference variable slot reference.
type Infer struct {
	Ivar  int
	Class IvarClass
}

// IvarClass constrains the literal-fallback defaulting of an Infer slot.
type IvarClass uint8

const (
	// ClassNone carries no default; an unresolved ivar of this class is a
	// hard inference failure.
	ClassNone IvarClass = iota
	// ClassInteger defaults to i32 if never otherwise constrained.
	ClassInteger
	// ClassFloat defaults to f64 if never otherwise constrained.
	ClassFloat
)

func (*Infer) isType()     {}
func (*Infer) Ivars() bool { return true }

// Diverge is the bottom type `!`, the type of expressions that never
// produce control flow to their syntactic successor (e.g. `return`, `loop {}`).
type Diverge struct{}

func (*Diverge) isType()     {}
func (*Diverge) Ivars() bool { return false }

// Primitive enumerates the built-in scalar types.
type Primitive struct {
	Name PrimitiveName
}

// PrimitiveName is one of Rust's built-in scalar type names.
type PrimitiveName string

const (
	PrimBool PrimitiveName = "bool"
	PrimChar PrimitiveName = "char"
	PrimStr  PrimitiveName = "str"
	PrimI8   PrimitiveName = "i8"
	PrimI16  PrimitiveName = "i16"
	PrimI32  PrimitiveName = "i32"
	PrimI64  PrimitiveName = "i64"
	PrimI128 PrimitiveName = "i128"
	PrimIsize PrimitiveName = "isize"
	PrimU8   PrimitiveName = "u8"
	PrimU16  PrimitiveName = "u16"
	PrimU32  PrimitiveName = "u32"
	PrimU64  PrimitiveName = "u64"
	PrimU128 PrimitiveName = "u128"
	PrimUsize PrimitiveName = "usize"
	PrimF32  PrimitiveName = "f32"
	PrimF64  PrimitiveName = "f64"
	PrimUnit PrimitiveName = "()"
)

func (*Primitive) isType()     {}
func (*Primitive) Ivars() bool { return false }

// IsInteger reports whether the primitive is one of the integer types
// (signed, unsigned, or size-typed).
func (p *Primitive) IsInteger() bool {
	switch p.Name {
	case PrimI8, PrimI16, PrimI32, PrimI64, PrimI128, PrimIsize,
		PrimU8, PrimU16, PrimU32, PrimU64, PrimU128, PrimUsize:
		return true
	}
	return false
}

// IsFloat reports whether the primitive is f32 or f64.
func (p *Primitive) IsFloat() bool { return p.Name == PrimF32 || p.Name == PrimF64 }

// PathType is a type reference through a (possibly generic) item path —
// a struct, enum, union, trait alias, or associated-type projection.
type PathType struct {
	Path *Path
}

func (*PathType) isType() {}
func (p *PathType) Ivars() bool {
	return p.Path.Ivars()
}

// GenericGroup distinguishes user-written generic parameters (group 0),
// impl-block generics (group 1), and synthesized per-impl placeholder
// generics minted during impl matching (group 2, see traitresolve).
type GenericGroup uint8

const (
	GroupItem GenericGroup = iota
	GroupImpl
	GroupPlaceholder
)

// Generic is a reference to a generic type parameter, or (group
// GroupPlaceholder) a synthesized placeholder minted uniquely per impl
// during matching.
type Generic struct {
	Group GenericGroup
	Index uint32
	Name  string
	// ImplID disambiguates placeholder generics minted for different impls;
	// zero for non-placeholder groups.
	ImplID uint64
	// IsPlaceholderUnknown marks a placeholder generic standing in for an
	// impl's own still-unbound parameter (see §4.2.2 "placeholder" group).
	IsPlaceholderUnknown bool
}

func (*Generic) isType() {}
func (g *Generic) Ivars() bool { return false }

// TraitObject is `dyn Principal + Marker1 + Marker2 + 'lifetime`.
type TraitObject struct {
	Principal      *GenericPath
	Markers        []*GenericPath
	AssociatedTys  map[string]Type
	Lifetime       Lifetime
}

func (*TraitObject) isType() {}
func (t *TraitObject) Ivars() bool {
	if t.Principal.Ivars() {
		return true
	}
	for _, m := range t.Markers {
		if m.Ivars() {
			return true
		}
	}
	for _, v := range t.AssociatedTys {
		if v.Ivars() {
			return true
		}
	}
	return false
}

// ErasedType is `impl Trait` at a function-return position, identified by
// the defining function and an index into its erased-type table.
type ErasedType struct {
	Origin ErasedOrigin
	Index  int
	// Bounds are the trait bounds declared on the `impl Trait`, used by EAT
	// to resolve associated-type projections through it.
	Bounds []*GenericPath
}

// ErasedOrigin identifies the function (generic or UFCS-inherent) whose
// erased_types table an ErasedType indexes into.
type ErasedOrigin struct {
	Function *Function
	// SelfType is set only for UFCS-inherent origins, where resolving the
	// erased type requires first locating the owning impl and matching its
	// generics against this Self type (see erasedtype package).
	SelfType Type
}

func (*ErasedType) isType() {}
func (e *ErasedType) Ivars() bool { return false }

// Array is a fixed-length array `[T; N]`.
type Array struct {
	Element Type
	Len     ArrayLen
}

// ArrayLen is a (possibly still-unevaluated) array length, resolved to a
// concrete value by the constant evaluator (pass A).
type ArrayLen struct {
	Known    bool
	Value    uint64
	ConstVal *ConstExpr
}

func (*Array) isType() {}
func (a *Array) Ivars() bool { return a.Element.Ivars() }

// Slice is the unsized `[T]`.
type Slice struct{ Element Type }

func (*Slice) isType()     {}
func (s *Slice) Ivars() bool { return s.Element.Ivars() }

// Tuple is a fixed tuple type `(T0, T1, ...)`.
type Tuple struct{ Elements []Type }

func (*Tuple) isType() {}
func (t *Tuple) Ivars() bool {
	for _, e := range t.Elements {
		if e.Ivars() {
			return true
		}
	}
	return false
}

// BorrowKind distinguishes shared, unique (mut), and (internal) owned
// move-out borrows used by closure capture classification.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
	BorrowOwned
)

// Borrow is `&T` / `&mut T`.
type Borrow struct {
	Kind     BorrowKind
	Lifetime Lifetime
	Inner    Type
}

func (*Borrow) isType()      {}
func (b *Borrow) Ivars() bool { return b.Inner.Ivars() }

// PointerKind distinguishes `*const T` from `*mut T`.
type PointerKind uint8

const (
	PointerConst PointerKind = iota
	PointerMut
)

// Pointer is a raw pointer type.
type Pointer struct {
	Kind  PointerKind
	Inner Type
}

func (*Pointer) isType()      {}
func (p *Pointer) Ivars() bool { return p.Inner.Ivars() }

// Function is a function-pointer type `fn(Args...) -> Ret`.
type FunctionType struct {
	Unsafe  bool
	ABI     string
	Args    []Type
	Return  Type
}

func (*FunctionType) isType() {}
func (f *FunctionType) Ivars() bool {
	for _, a := range f.Args {
		if a.Ivars() {
			return true
		}
	}
	return f.Return.Ivars()
}

// IsRustABI reports whether the function pointer uses the default "Rust"
// ABI and is safe — the precondition for it to synthesize a Fn*/FnMut/FnOnce
// impl in trait resolution's built-in magic (§4.2.2 step 1b).
func (f *FunctionType) IsRustABI() bool { return !f.Unsafe && (f.ABI == "" || f.ABI == "Rust") }

// Closure is the type of a not-yet-lowered closure literal; after pass C it
// is replaced everywhere by a PathType naming the synthesized struct.
type ClosureType struct {
	Node   *ExprClosure
	IsCopy bool
}

func (*ClosureType) isType()      {}
func (c *ClosureType) Ivars() bool { return false }

// Generator is the type of a not-yet-lowered generator literal.
type GeneratorType struct {
	Node *ExprGenerator
}

func (*GeneratorType) isType()      {}
func (g *GeneratorType) Ivars() bool { return false }

// TypesEqual is a structural (not nominal-after-EAT) equality check used by
// the simpler callers that don't need ivar-following; typeinfer.Context has
// the ivar-aware version used during active inference.
func TypesEqual(a, b Type) bool {
	switch av := a.(type) {
	case *Infer:
		bv, ok := b.(*Infer)
		return ok && av.Ivar == bv.Ivar
	case *Diverge:
		_, ok := b.(*Diverge)
		return ok
	case *Primitive:
		bv, ok := b.(*Primitive)
		return ok && av.Name == bv.Name
	case *PathType:
		bv, ok := b.(*PathType)
		return ok && PathsEqual(av.Path, bv.Path)
	case *Generic:
		bv, ok := b.(*Generic)
		return ok && av.Group == bv.Group && av.Index == bv.Index && av.ImplID == bv.ImplID
	case *TraitObject:
		bv, ok := b.(*TraitObject)
		if !ok || !GenericPathsEqual(av.Principal, bv.Principal) || len(av.Markers) != len(bv.Markers) {
			return false
		}
		for i := range av.Markers {
			if !GenericPathsEqual(av.Markers[i], bv.Markers[i]) {
				return false
			}
		}
		return true
	case *ErasedType:
		bv, ok := b.(*ErasedType)
		return ok && av.Origin.Function == bv.Origin.Function && av.Index == bv.Index
	case *Array:
		bv, ok := b.(*Array)
		return ok && av.Len.Known && bv.Len.Known && av.Len.Value == bv.Len.Value && TypesEqual(av.Element, bv.Element)
	case *Slice:
		bv, ok := b.(*Slice)
		return ok && TypesEqual(av.Element, bv.Element)
	case *Tuple:
		bv, ok := b.(*Tuple)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !TypesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Borrow:
		bv, ok := b.(*Borrow)
		return ok && av.Kind == bv.Kind && TypesEqual(av.Inner, bv.Inner)
	case *Pointer:
		bv, ok := b.(*Pointer)
		return ok && av.Kind == bv.Kind && TypesEqual(av.Inner, bv.Inner)
	case *FunctionType:
		bv, ok := b.(*FunctionType)
		if !ok || len(av.Args) != len(bv.Args) || !TypesEqual(av.Return, bv.Return) {
			return false
		}
		for i := range av.Args {
			if !TypesEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *ClosureType:
		bv, ok := b.(*ClosureType)
		return ok && av.Node == bv.Node
	case *GeneratorType:
		bv, ok := b.(*GeneratorType)
		return ok && av.Node == bv.Node
	}
	return false
}
