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

import "strings"

// PathKind distinguishes the four shapes a Path can take. UfcsUnknown must
// never appear once the middle-end begins (spec.md data model invariant on
// the Path entity) — it exists only so the frontend can assert its absence
// at the boundary.
type PathKind uint8

const (
	// PathGeneric is `module::Item<Params>` or `module::item`.
	PathGeneric PathKind = iota
	// PathUfcsInherent is `<Type>::method`.
	PathUfcsInherent
	// PathUfcsKnown is `<Type as Trait>::method` / `::Item`.
	PathUfcsKnown
	// PathUfcsUnknown is `<Type>::method` before the typeck frontend has
	// determined whether `method` resolves inherently or through a trait.
	PathUfcsUnknown
)

// Path is the sum type described in the data model: a fully-resolved path
// is always PathGeneric, PathUfcsInherent, or PathUfcsKnown.
type Path struct {
	Kind PathKind

	// Generic fields (PathKind == PathGeneric).
	Generic *GenericPath

	// UFCS fields (PathKind in {UfcsInherent, UfcsKnown, UfcsUnknown}).
	UfcsSelfType Type
	// UfcsTrait is set only for PathUfcsKnown.
	UfcsTrait *GenericPath
	UfcsItem  string
	// UfcsParams carries any explicit generic parameters on the
	// associated item itself (e.g. a generic trait method).
	UfcsParams *PathParams
}

func (p *Path) Ivars() bool {
	switch p.Kind {
	case PathGeneric:
		return p.Generic.Ivars()
	default:
		if p.UfcsSelfType != nil && p.UfcsSelfType.Ivars() {
			return true
		}
		if p.UfcsTrait != nil && p.UfcsTrait.Ivars() {
			return true
		}
		return false
	}
}

// String renders a human-readable approximation of the path, good enough
// for diagnostics and debugging (not guaranteed round-trippable).
func (p *Path) String() string {
	switch p.Kind {
	case PathGeneric:
		return p.Generic.String()
	case PathUfcsInherent:
		return "<" + typeString(p.UfcsSelfType) + ">::" + p.UfcsItem
	case PathUfcsKnown:
		return "<" + typeString(p.UfcsSelfType) + " as " + p.UfcsTrait.String() + ">::" + p.UfcsItem
	default:
		return "<" + typeString(p.UfcsSelfType) + ">::?::" + p.UfcsItem
	}
}

// GenericPath names an item plus its generic arguments: `crate::mod::Item<A, B>`.
type GenericPath struct {
	Segments  []string
	Params    *PathParams
	// ResolvedItem is filled in by name resolution (external to this core)
	// and read-only here; it lets passes jump straight to the Trait/Struct
	// item without re-walking module namespaces.
	ResolvedItem any
}

func (g *GenericPath) Ivars() bool { return g.Params.Ivars() }

func (g *GenericPath) String() string {
	s := strings.Join(g.Segments, "::")
	if g.Params != nil && (len(g.Params.Types) > 0 || len(g.Params.Lifetimes) > 0 ||
		len(g.Params.Values) > 0 || len(g.Params.Bindings) > 0) {
		s += g.Params.String()
	}
	return s
}

// AssocBinding is an associated-type binding supplied at a trait bound's
// use site, e.g. the `Item = U` in `T: Iterator<Item = U>`. It is distinct
// from a positional Types entry: Rust binds these by the associated
// item's name, not by position, and a bound can name one without
// supplying any positional type arguments at all.
type AssocBinding struct {
	Name string
	Type Type
}

// PathParams are the generic arguments supplied at a path use site.
type PathParams struct {
	Lifetimes []Lifetime
	Types     []Type
	Values    []ValueParam
	// Bindings holds any associated-type bindings written at this use
	// site (only meaningful on a trait bound's GenericPath; a path in
	// type/value position never carries one).
	Bindings []AssocBinding
}

func (p *PathParams) Ivars() bool {
	if p == nil {
		return false
	}
	for _, t := range p.Types {
		if t.Ivars() {
			return true
		}
	}
	for _, v := range p.Values {
		if v.Ivars() {
			return true
		}
	}
	for _, b := range p.Bindings {
		if b.Type.Ivars() {
			return true
		}
	}
	return false
}

func (p *PathParams) String() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Types)+len(p.Values)+len(p.Bindings))
	for _, t := range p.Types {
		parts = append(parts, typeString(t))
	}
	for _, v := range p.Values {
		parts = append(parts, v.String())
	}
	for _, b := range p.Bindings {
		parts = append(parts, b.Name+" = "+typeString(b.Type))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// ValueParam is a const-generic argument (array length and friends).
type ValueParam struct {
	Known bool
	Value uint64
	Ivar  int
}

func (v ValueParam) Ivars() bool { return !v.Known }
func (v ValueParam) String() string {
	if v.Known {
		return itoa(v.Value)
	}
	return "_"
}

// PathsEqual is a shallow structural comparison of two paths, sufficient
// for cache keys once both are fully resolved (no UfcsUnknown).
func PathsEqual(a, b *Path) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case PathGeneric:
		return GenericPathsEqual(a.Generic, b.Generic)
	default:
		return TypesEqual(a.UfcsSelfType, b.UfcsSelfType) && a.UfcsItem == b.UfcsItem &&
			(a.UfcsTrait == nil) == (b.UfcsTrait == nil) &&
			(a.UfcsTrait == nil || GenericPathsEqual(a.UfcsTrait, b.UfcsTrait))
	}
}

// GenericPathsEqual compares two generic paths structurally, including
// their type parameters.
func GenericPathsEqual(a, b *GenericPath) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Segments) != len(b.Segments) {
		return false
	}
	for i := range a.Segments {
		if a.Segments[i] != b.Segments[i] {
			return false
		}
	}
	at, bt := a.Params, b.Params
	if (at == nil) != (bt == nil) {
		return at == nil && len(bt.Types) == 0 || bt == nil && len(at.Types) == 0
	}
	if at == nil {
		return true
	}
	if len(at.Types) != len(bt.Types) {
		return false
	}
	for i := range at.Types {
		if !TypesEqual(at.Types[i], bt.Types[i]) {
			return false
		}
	}
	if len(at.Bindings) != len(bt.Bindings) {
		return false
	}
	for i := range at.Bindings {
		if at.Bindings[i].Name != bt.Bindings[i].Name || !TypesEqual(at.Bindings[i].Type, bt.Bindings[i].Type) {
			return false
		}
	}
	return true
}

func typeString(t Type) string {
	if t == nil {
		return "_"
	}
	switch v := t.(type) {
	case *Primitive:
		return string(v.Name)
	case *PathType:
		return v.Path.String()
	case *Generic:
		if v.Name != "" {
			return v.Name
		}
		return "{param}"
	case *Borrow:
		if v.Kind == BorrowUnique {
			return "&mut " + typeString(v.Inner)
		}
		return "&" + typeString(v.Inner)
	case *Slice:
		return "[" + typeString(v.Element) + "]"
	case *Array:
		return "[" + typeString(v.Element) + "; _]"
	case *Tuple:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = typeString(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *TraitObject:
		return "dyn " + v.Principal.String()
	case *ErasedType:
		return "impl Trait"
	case *Infer:
		return "_"
	case *Diverge:
		return "!"
	default:
		return "<type>"
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
