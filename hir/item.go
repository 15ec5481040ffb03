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

// Param is one declared argument of a Function: a pattern (almost always a
// simple binding, but Rust allows `fn f((a, b): (i32, i32))`) plus its type.
type Param struct {
	Pat Pattern
	Ty  Type
}

// Function is a callable item: a free function, inherent method, or trait
// method (with or without a body).
type Function struct {
	Name       string
	Generics   *GenericParams
	Params     []Param
	ReturnType Type
	Body       Expr // nil for a trait method declaration without a default body
	// ReceiverKind is ReceiverValue when this is a free function (no Self
	// receiver is otherwise distinguishable; callers check IsMethod).
	ReceiverKind ReceiverKind
	IsMethod     bool
	// IsConstFn marks a `const fn`, consulted by constprop's constant-ness
	// walker (spec.md §4.8: "CallPath of a const fn whose args are all
	// constant").
	IsConstFn bool
	// ErasedTypes is the per-function table that `impl Trait` return
	// positions index into (populated by typeck, consumed by erasedtype).
	ErasedTypes []Type
	At          token.Pos
}

// Static is a `static NAME: Ty = init;` item.
type Static struct {
	Name             string
	Ty               Type
	Init             Expr
	EvaluatedLiteral *Literal
	Mutable          bool
	At               token.Pos
}

// Const is a `const NAME: Ty = init;` item.
type Const struct {
	Name             string
	Ty               Type
	Init             Expr
	EvaluatedLiteral *Literal
	At               token.Pos
}

// StructMarkings carries the precomputed facts about a struct used
// throughout trait resolution's built-in magic (§4.2.2/§4.2.5): whether
// it's known Copy, whether it has a possibly-unsized ("DST-capable") tail
// field, and which generic parameter (if any) that tail's unsizing pivots
// on.
type StructMarkings struct {
	IsCopy bool
	// UnsizedParam is the index of the generic type parameter the struct's
	// last field is generic over, used by can_unsize's struct-to-struct
	// case; -1 if the struct has no unsized tail.
	UnsizedParam int
	// DstType, if non-nil, is the concrete type the struct's tail field
	// unsizes to when the struct itself is a fixed (non-generic) DST, e.g.
	// a struct whose last field is `[u8]` directly.
	DstType Type
	// IsInteriorMutable marks a struct built on `Cell`/`UnsafeCell`/`RefCell`
	// (directly or through a field), consulted by constprop's constant-ness
	// walker to reject promoting a `&` borrow of one to a shared static.
	IsInteriorMutable bool
}

// StructField is one field of a Struct.
type StructField struct {
	Name string
	Ty   Type
}

// Struct is a `struct` item (named-field or tuple-struct; Fields holds
// empty Name for tuple-struct fields).
type Struct struct {
	Name     string
	Generics *GenericParams
	Fields   []StructField
	Markings StructMarkings
	At       token.Pos
}

// EnumVariant is one variant of an Enum.
type EnumVariant struct {
	Name   string
	Fields []StructField // empty for a unit variant
	// Discriminant is the evaluated literal discriminant value, filled in
	// by the constant evaluator.
	Discriminant *Literal
}

// Enum is an `enum` item.
type Enum struct {
	Name     string
	Generics *GenericParams
	Variants []EnumVariant
	Markings StructMarkings
	// TagRepr is the integer primitive backing the discriminant, used by
	// the built-in DiscriminantKind impl (§4.2.2 step 1d).
	TagRepr PrimitiveName
	At      token.Pos
}

// Union is a `union` item.
type Union struct {
	Name     string
	Generics *GenericParams
	Fields   []StructField
	At       token.Pos
}

// AssociatedType is a trait's `type Name: Bounds;` declaration (or, inside
// an impl, its `type Name = Concrete;` definition — TraitImpl.AssocTypes
// holds those).
type AssociatedType struct {
	Name   string
	Bounds []*GenericPath
}

// TraitValueIndex records a vtable method slot assignment (spec.md §4.7
// step 4, m_value_indexes).
type TraitValueIndex struct {
	Method      string
	SlotIndex   int
	SourceTrait *GenericPath
}

// TraitTypeIndex records a vtable type-parameter assignment for an
// associated type (spec.md §4.7 step 4, m_type_indexes).
type TraitTypeIndex struct {
	AssocType     string
	TypeParamSlot int
}

// Trait is a `trait` item.
type Trait struct {
	Name           string
	Generics       *GenericParams
	IsMarker       bool // auto-trait / OIBIT
	Methods        []*Function
	AssocTypes     []AssociatedType
	ParentTraits   []*GenericPath
	// AllParentTraits is the transitively-closed, declaration-ordered
	// supertrait set (m_all_parent_traits), computed once and cached.
	AllParentTraits []*GenericPath

	// Object-safety / vtable synthesis outputs (populated by vtablegen).
	ObjectSafe          bool
	VTableStructPath    *Path
	ValueIndexes        []TraitValueIndex
	TypeIndexes         []TraitTypeIndex
	VTableParentsStart  int
	At                  token.Pos
}

// TraitAlias is a `trait Alias = Bound1 + Bound2;` item.
type TraitAlias struct {
	Name     string
	Generics *GenericParams
	Bounds   []*GenericPath
}

// ImplConst is an associated constant defined inside an impl block.
type ImplConst struct {
	Name string
	Ty   Type
	Init Expr
}

// TypeImpl is an inherent `impl Type { ... }` block.
type TypeImpl struct {
	Generics *GenericParams
	SelfType Type
	Methods  []*Function
	Consts   []ImplConst
	At       token.Pos
}

// TraitImpl is a trait `impl Trait<Params> for Type { ... }` block.
type TraitImpl struct {
	Generics     *GenericParams
	Trait        *GenericPath
	SelfType     Type
	Methods      []*Function
	AssocTypes   map[string]Type
	Consts       []ImplConst
	Bounds       []GenericBound
	// Specializable marks an impl eligible to be overridden by a more
	// specific one (spec.md §9 Open Question: tie-break is only partial).
	Specializable bool
	// Synthetic marks an impl created by closurelower/vtablegen rather
	// than parsed from source.
	Synthetic bool
	At        token.Pos
}

// MarkerImpl is an auto-trait impl, positive (`impl Send for T {}`) or
// negative (`impl !Send for T {}`).
type MarkerImpl struct {
	Generics *GenericParams
	Trait    *GenericPath
	SelfType Type
	Negative bool
	Bounds   []GenericBound
	At       token.Pos
}
