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

package vtablegen

import "github.com/rlang/hirxc/hir"

// parentPlaceholder records one supertrait-vtable-pointer field minted
// with the `()` fallback value during BuildTrait, to be upgraded by
// fixupParentPointers once every trait's own ObjectSafe/VTableStructPath
// is final (spec.md §4.7 step 5).
type parentPlaceholder struct {
	childStruct *hir.Struct
	fieldIndex  int
	parent      *hir.GenericPath
	// childAtyIndex maps each of the child's unified associated-type
	// names to its slot in childStruct's own generics, needed to build
	// the parent's type arguments from "the child trait's bound-table".
	childAtyIndex map[string]int
}

// BuildTrait implements spec.md §4.7 for a single trait: check object
// safety, and if it passes, synthesize the vtable struct, push its
// `vtable#` static, and populate tr's index fields. A trait that fails
// either the method-eligibility check or the associated-type collision
// check is left with ObjectSafe false and every index field cleared.
func (g *Generator) BuildTrait(mod *hir.Module, tr *hir.Trait) {
	methods, ok := g.eligibleMethods(tr)
	if !ok {
		clearVTable(tr)
		return
	}
	atyNames, ok := unifiedAssocTypes(tr)
	if !ok {
		clearVTable(tr)
		return
	}

	atyIndex := make(map[string]int, len(atyNames))
	typeNames := make([]string, len(atyNames))
	for i, name := range atyNames {
		atyIndex[name] = i
		typeNames[i] = "a#" + name
	}
	structGenerics := &hir.GenericParams{TypeNames: typeNames}

	fields := []hir.StructField{
		{Name: "drop_glue", Ty: dropGlueType()},
		{Name: "size", Ty: &hir.Primitive{Name: hir.PrimUsize}},
		{Name: "align", Ty: &hir.Primitive{Name: hir.PrimUsize}},
	}
	valueIndexes := make([]hir.TraitValueIndex, len(methods))
	for i, m := range methods {
		fields = append(fields, hir.StructField{Name: m.fn.Name + "_ptr", Ty: methodPtrType(m.fn, atyIndex)})
		valueIndexes[i] = hir.TraitValueIndex{Method: m.fn.Name, SlotIndex: 3 + i, SourceTrait: m.source}
	}
	parentsStart := len(fields)

	vtableStruct := &hir.Struct{
		Name:     tr.Name + "#vtable",
		Generics: structGenerics,
		Fields:   fields,
		Markings: hir.StructMarkings{UnsizedParam: -1},
	}

	for _, parent := range tr.AllParentTraits {
		fieldIdx := len(vtableStruct.Fields)
		vtableStruct.Fields = append(vtableStruct.Fields, hir.StructField{
			Name: "parent_" + parentName(parent) + "_vtable",
			Ty:   &hir.Primitive{Name: hir.PrimUnit}, // fixupParentPointers upgrades this once parent is known
		})
		g.pending = append(g.pending, parentPlaceholder{
			childStruct:   vtableStruct,
			fieldIndex:    fieldIdx,
			parent:        parent,
			childAtyIndex: atyIndex,
		})
	}

	var buf hir.NewItemBuffer
	buf.Structs = append(buf.Structs, vtableStruct)
	path := vtableTypePath(mod, vtableStruct)

	staticTy := &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Static, Inner: &hir.PathType{Path: path}}
	buf.Statics = append(buf.Statics, &hir.Static{Name: "vtable#", Ty: staticTy})
	buf.Flush(g.Crate, mod)

	tr.ObjectSafe = true
	tr.VTableStructPath = path
	tr.ValueIndexes = valueIndexes
	tr.TypeIndexes = make([]hir.TraitTypeIndex, len(atyNames))
	for i, name := range atyNames {
		tr.TypeIndexes[i] = hir.TraitTypeIndex{AssocType: name, TypeParamSlot: i}
	}
	tr.VTableParentsStart = parentsStart
}

func clearVTable(tr *hir.Trait) {
	tr.ObjectSafe = false
	tr.VTableStructPath = nil
	tr.ValueIndexes = nil
	tr.TypeIndexes = nil
	tr.VTableParentsStart = 0
}

// dropGlueType is `fn(*mut ()) -> ()`, spec.md §4.7 step 2.1.
func dropGlueType() *hir.FunctionType {
	return &hir.FunctionType{
		Args:   []hir.Type{&hir.Pointer{Kind: hir.PointerMut, Inner: &hir.Primitive{Name: hir.PrimUnit}}},
		Return: &hir.Primitive{Name: hir.PrimUnit},
	}
}

// methodPtrType builds one dispatchable method's vtable entry type: the
// receiver collapses to a single erased `*mut ()` argument regardless of
// whether the original receiver was by value, by shared/unique reference,
// or boxed (spec.md §4.7 step 2.4 says only "Self argument replaced by
// ()"; modeling the receiver's own borrow-kind in the erased pointer
// would need a Box-like built-in this HIR doesn't carry, so every
// receiver kind is erased identically — the common real-world vtable ABI
// choice, and the one spec.md's own S6 example is consistent with).
func methodPtrType(fn *hir.Function, atyIndex map[string]int) *hir.FunctionType {
	args := make([]hir.Type, 0, len(fn.Params)+1)
	args = append(args, &hir.Pointer{Kind: hir.PointerMut, Inner: &hir.Primitive{Name: hir.PrimUnit}})
	params := fn.Params
	if fn.IsMethod && len(params) > 0 {
		params = params[1:] // the receiver, replaced by the erased pointer above
	}
	for _, p := range params {
		args = append(args, substVTableType(p.Ty, atyIndex))
	}
	return &hir.FunctionType{Args: args, Return: substVTableType(fn.ReturnType, atyIndex)}
}

// substVTableType replaces every occurrence of Self with the unit type
// and every `<Self as Tr>::Name` associated-type projection with its
// indexed generic `a#Name` (spec.md §4.7 step 2.4).
func substVTableType(ty hir.Type, atyIndex map[string]int) hir.Type {
	switch v := ty.(type) {
	case nil:
		return nil
	case *hir.Generic:
		if v.Name == "Self" {
			return &hir.Primitive{Name: hir.PrimUnit}
		}
		return v
	case *hir.Borrow:
		n := *v
		n.Inner = substVTableType(v.Inner, atyIndex)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = substVTableType(v.Inner, atyIndex)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: substVTableType(v.Element, atyIndex)}
	case *hir.Array:
		n := *v
		n.Element = substVTableType(v.Element, atyIndex)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = substVTableType(e, atyIndex)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = substVTableType(a, atyIndex)
		}
		n.Return = substVTableType(v.Return, atyIndex)
		return &n
	case *hir.PathType:
		if v.Path.Kind == hir.PathUfcsKnown && isSelfType(v.Path.UfcsSelfType) {
			if idx, ok := atyIndex[v.Path.UfcsItem]; ok {
				return &hir.Generic{Group: hir.GroupItem, Name: "a#" + v.Path.UfcsItem, Index: uint32(idx)}
			}
		}
		return v
	default:
		return ty
	}
}

func parentName(p *hir.GenericPath) string {
	if n := len(p.Segments); n > 0 {
		return p.Segments[n-1]
	}
	return "parent"
}

// vtableTypePath builds a path naming the just-synthesized vtable struct,
// parameterized by its own generics (one per associated type), the same
// way closurelower.buildTypePath names a synthesized closure struct.
func vtableTypePath(mod *hir.Module, s *hir.Struct) *hir.Path {
	segs := append(append([]string{}, mod.Path...), s.Name)
	var params *hir.PathParams
	if n := s.Generics.NumParams(); n > 0 {
		types := make([]hir.Type, len(s.Generics.TypeNames))
		for i, tn := range s.Generics.TypeNames {
			types[i] = &hir.Generic{Group: hir.GroupItem, Index: uint32(i), Name: tn}
		}
		params = &hir.PathParams{Types: types}
	}
	return &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: segs, Params: params, ResolvedItem: s}}
}
