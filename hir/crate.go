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

// TypeItem is the sum of item kinds that live in a module's type namespace.
type TypeItem struct {
	Struct         *Struct
	Enum           *Enum
	Union          *Union
	Trait          *Trait
	TraitAlias     *TraitAlias
	AssociatedType *AssociatedType
}

// ValueItem is the sum of item kinds that live in a module's value
// namespace.
type ValueItem struct {
	Function *Function
	Static   *Static
	Const    *Const
}

// Module is a namespace node: it owns nested modules and the type/value
// items declared directly in it, in source order (Order) for traversal.
type Module struct {
	Path      []string
	Types     map[string]*TypeItem
	Values    map[string]*ValueItem
	Submodules map[string]*Module
	// Order lists the names of items in Types/Values in source declaration
	// order, so the visitor emits them deterministically; submodules are
	// always visited before a module's own items (spec.md §4.1).
	TypeOrder  []string
	ValueOrder []string
	SubOrder   []string
}

// NewModule returns an empty module rooted at the given path.
func NewModule(path []string) *Module {
	return &Module{
		Path:       path,
		Types:      map[string]*TypeItem{},
		Values:     map[string]*ValueItem{},
		Submodules: map[string]*Module{},
	}
}

// AddType registers a type item under name, appending to TypeOrder iff new.
func (m *Module) AddType(name string, item *TypeItem) {
	if _, exists := m.Types[name]; !exists {
		m.TypeOrder = append(m.TypeOrder, name)
	}
	m.Types[name] = item
}

// AddValue registers a value item under name, appending to ValueOrder iff new.
func (m *Module) AddValue(name string, item *ValueItem) {
	if _, exists := m.Values[name]; !exists {
		m.ValueOrder = append(m.ValueOrder, name)
	}
	m.Values[name] = item
}

// AddSubmodule registers a nested module.
func (m *Module) AddSubmodule(name string, sub *Module) {
	if _, exists := m.Submodules[name]; !exists {
		m.SubOrder = append(m.SubOrder, name)
	}
	m.Submodules[name] = sub
}

// implKey identifies a (trait, self-type-head) bucket in the crate's
// trait-impl index. We key on the trait's path string and a coarse
// "type head" discriminator (rather than full structural type equality)
// so lookup is O(bucket) instead of O(all impls); exact matching within a
// bucket is done by traitresolve.
type implKey struct {
	trait    string
	typeHead string
}

// Crate is the whole-program mutable graph every middle-end pass operates
// on (spec.md §3 "Ownership").
type Crate struct {
	Root *Module

	// TypeImpls, TraitImpls, and MarkerImpls are the crate-wide impl
	// tables; back-references (trait -> impls) live here rather than in
	// owning pointers, per the "arena-and-index model" design note.
	TypeImpls   []*TypeImpl
	TraitImpls  []*TraitImpl
	MarkerImpls []*MarkerImpl

	traitImplIndex  map[implKey][]*TraitImpl
	markerImplIndex map[implKey][]*MarkerImpl
	typeImplIndex   map[string][]*TypeImpl

	// FileSet backs every token.Pos stored on HIR nodes, built once by the
	// crate loader from the frontend's preserved source spans.
	FileSet *token.FileSet
}

// NewCrate returns an empty crate ready for item population.
func NewCrate(fset *token.FileSet) *Crate {
	if fset == nil {
		fset = token.NewFileSet()
	}
	return &Crate{
		Root:            NewModule(nil),
		traitImplIndex:  map[implKey][]*TraitImpl{},
		markerImplIndex: map[implKey][]*MarkerImpl{},
		typeImplIndex:   map[string][]*TypeImpl{},
		FileSet:         fset,
	}
}

// RebuildIndices repopulates the impl lookup indices from TypeImpls,
// TraitImpls, and MarkerImpls. The indices are unexported (they're a pure
// lookup-speed cache, not part of the crate's real ownership graph per the
// "arena-and-index model" design note above), so they never survive a
// gob round-trip on their own; a driver decoding a Crate gob-encoded by
// another process must call RebuildIndices once before running any pass
// that queries TypeImplCandidates/TraitImplCandidates/MarkerImplCandidates.
func (c *Crate) RebuildIndices() {
	c.traitImplIndex = map[implKey][]*TraitImpl{}
	c.markerImplIndex = map[implKey][]*MarkerImpl{}
	c.typeImplIndex = map[string][]*TypeImpl{}

	typeImpls, traitImpls, markerImpls := c.TypeImpls, c.TraitImpls, c.MarkerImpls
	c.TypeImpls, c.TraitImpls, c.MarkerImpls = nil, nil, nil
	for _, impl := range typeImpls {
		c.AddTypeImpl(impl)
	}
	for _, impl := range traitImpls {
		c.AddTraitImpl(impl)
	}
	for _, impl := range markerImpls {
		c.AddMarkerImpl(impl)
	}
}

// typeHead produces a coarse bucketing key for a self type: good enough to
// separate "obviously different" impls without doing full unification.
func typeHead(t Type) string {
	switch v := t.(type) {
	case *Primitive:
		return "prim:" + string(v.Name)
	case *PathType:
		if v.Path.Kind == PathGeneric && v.Path.Generic != nil {
			return "path:" + v.Path.Generic.String()
		}
		return "path:?"
	case *Generic:
		return "generic"
	case *Borrow:
		return "borrow"
	case *Pointer:
		return "pointer"
	case *Slice:
		return "slice"
	case *Array:
		return "array"
	case *Tuple:
		return "tuple"
	case *TraitObject:
		return "dyn"
	case *FunctionType:
		return "fn"
	case *ClosureType:
		return "closure"
	case *GeneratorType:
		return "generator"
	case *ErasedType:
		return "impl-trait"
	default:
		return "other"
	}
}

// AddTraitImpl registers a new trait impl in the crate, indexing it for
// lookup. Passes that synthesize impls mid-traversal (closurelower,
// vtablegen) must buffer them locally and call this only after the
// traversal completes (design note: "never mutate the container being
// iterated").
func (c *Crate) AddTraitImpl(impl *TraitImpl) {
	c.TraitImpls = append(c.TraitImpls, impl)
	key := implKey{trait: impl.Trait.String(), typeHead: typeHead(impl.SelfType)}
	c.traitImplIndex[key] = append(c.traitImplIndex[key], impl)
}

// AddMarkerImpl registers a new auto-trait impl.
func (c *Crate) AddMarkerImpl(impl *MarkerImpl) {
	c.MarkerImpls = append(c.MarkerImpls, impl)
	key := implKey{trait: impl.Trait.String(), typeHead: typeHead(impl.SelfType)}
	c.markerImplIndex[key] = append(c.markerImplIndex[key], impl)
}

// AddTypeImpl registers a new inherent impl.
func (c *Crate) AddTypeImpl(impl *TypeImpl) {
	c.TypeImpls = append(c.TypeImpls, impl)
	key := typeHead(impl.SelfType)
	c.typeImplIndex[key] = append(c.typeImplIndex[key], impl)
}

// TypeImplCandidates returns every inherent impl whose type-head bucket
// matches self, used by autoderef_find_method's inherent-impl lookup at
// each deref depth.
func (c *Crate) TypeImplCandidates(self Type) []*TypeImpl {
	return c.typeImplIndex[typeHead(self)]
}

// TraitImplCandidates returns every trait impl whose (trait, type-head)
// bucket matches the query; callers (traitresolve) still need to verify
// the candidate actually unifies.
func (c *Crate) TraitImplCandidates(traitPath *GenericPath, self Type) []*TraitImpl {
	key := implKey{trait: traitPath.String(), typeHead: typeHead(self)}
	return c.traitImplIndex[key]
}

// MarkerImplCandidates returns every marker (auto-trait) impl whose
// (trait, type-head) bucket matches the query.
func (c *Crate) MarkerImplCandidates(traitPath *GenericPath, self Type) []*MarkerImpl {
	key := implKey{trait: traitPath.String(), typeHead: typeHead(self)}
	return c.markerImplIndex[key]
}

// AllTraitImplsOfTrait returns every impl (across all type heads) of the
// named trait, used by vtablegen to walk a trait's full impl set and by
// EAT's "crate-level impl search" which must consider generic Self types
// that don't bucket cleanly.
func (c *Crate) AllTraitImplsOfTrait(traitPath *GenericPath) []*TraitImpl {
	var out []*TraitImpl
	want := traitPath.String()
	for _, impl := range c.TraitImpls {
		if impl.Trait.String() == want {
			out = append(out, impl)
		}
	}
	return out
}

// NewItemBuffer accumulates items synthesized mid-traversal by a pass, to
// be spliced into the owning module after traversal completes (design note:
// "Iteration + mutation").
type NewItemBuffer struct {
	Structs     []*Struct
	Enums       []*Enum
	Unions      []*Union
	TraitImpls  []*TraitImpl
	MarkerImpls []*MarkerImpl
	Statics     []*Static
}

// Flush splices every buffered item into the given module (for module-local
// synthesis) and the crate's global impl tables, then clears the buffer.
func (b *NewItemBuffer) Flush(c *Crate, mod *Module) {
	for _, s := range b.Structs {
		mod.AddType(s.Name, &TypeItem{Struct: s})
	}
	for _, e := range b.Enums {
		mod.AddType(e.Name, &TypeItem{Enum: e})
	}
	for _, u := range b.Unions {
		mod.AddType(u.Name, &TypeItem{Union: u})
	}
	for _, st := range b.Statics {
		mod.AddValue(st.Name, &ValueItem{Static: st})
	}
	for _, ti := range b.TraitImpls {
		c.AddTraitImpl(ti)
	}
	for _, mi := range b.MarkerImpls {
		c.AddMarkerImpl(mi)
	}
	*b = NewItemBuffer{}
}
