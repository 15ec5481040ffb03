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

package closurelower

import "github.com/rlang/hirxc/hir"

// genericOrigin identifies, for one slot of the new struct's generics,
// which of the three concatenated sources (Self, impl, item) it came from
// and at what index there — the information remapGenerics needs to rewrite
// a Generic reference found in a captured field's type.
type genericOrigin struct {
	group hir.GenericGroup
	index uint32
}

// buildStructGenerics implements spec.md §4.5 step 1: concatenate Self (if
// in scope), impl generics, and item generics into one dense GenericParams
// for the new struct, and return the old-group/old-index -> new-dense-index
// table needed to monomorphise capture field types through the remapping.
func buildStructGenerics(selfInScope bool, implGenerics, itemGenerics *hir.GenericParams) (*hir.GenericParams, map[genericOrigin]uint32) {
	out := &hir.GenericParams{}
	remap := map[genericOrigin]uint32{}
	next := uint32(0)

	addFrom := func(group hir.GenericGroup, g *hir.GenericParams) {
		if g == nil {
			return
		}
		for _, lt := range g.Lifetimes {
			out.Lifetimes = append(out.Lifetimes, lt)
		}
		for i, name := range g.TypeNames {
			out.TypeNames = append(out.TypeNames, name)
			remap[genericOrigin{group: group, index: uint32(i)}] = next
			next++
		}
		for _, vt := range g.ValueTys {
			out.ValueTys = append(out.ValueTys, vt)
		}
	}

	if selfInScope {
		out.TypeNames = append(out.TypeNames, "Self")
		remap[genericOrigin{group: hir.GroupImpl, index: selfPseudoIndex}] = next
		next++
	}
	addFrom(hir.GroupImpl, implGenerics)
	addFrom(hir.GroupItem, itemGenerics)
	return out, remap
}

// selfPseudoIndex is a sentinel generic index used only as a remap-table
// key for the concatenated Self slot, which has no real declaration index
// of its own (it is the impl's own SelfType, not one of its generic
// parameters).
const selfPseudoIndex = ^uint32(0)

// remapGenerics rewrites every Generic reference inside t through table,
// dropping references the table has no entry for unchanged (a generic that
// belongs to neither Self, the impl, nor the item — shouldn't occur for a
// well-formed capture type, but this is a best-effort rewrite, not a
// validator).
func remapGenerics(t hir.Type, table map[genericOrigin]uint32) hir.Type {
	switch v := t.(type) {
	case *hir.Generic:
		if idx, ok := table[genericOrigin{group: v.Group, index: v.Index}]; ok {
			return &hir.Generic{Group: hir.GroupItem, Index: idx, Name: v.Name}
		}
		return v
	case *hir.Borrow:
		return &hir.Borrow{Kind: v.Kind, Lifetime: v.Lifetime, Inner: remapGenerics(v.Inner, table)}
	case *hir.Pointer:
		return &hir.Pointer{Kind: v.Kind, Inner: remapGenerics(v.Inner, table)}
	case *hir.Slice:
		return &hir.Slice{Element: remapGenerics(v.Element, table)}
	case *hir.Array:
		return &hir.Array{Element: remapGenerics(v.Element, table), Len: v.Len}
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = remapGenerics(e, table)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.PathType:
		return &hir.PathType{Path: remapPath(v.Path, table)}
	default:
		return t
	}
}

func remapPath(p *hir.Path, table map[genericOrigin]uint32) *hir.Path {
	if p == nil || p.Kind != hir.PathGeneric || p.Generic == nil || p.Generic.Params == nil {
		return p
	}
	types := make([]hir.Type, len(p.Generic.Params.Types))
	for i, t := range p.Generic.Params.Types {
		types[i] = remapGenerics(t, table)
	}
	return &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{
		Segments: p.Generic.Segments,
		Params:   &hir.PathParams{Types: types, Lifetimes: p.Generic.Params.Lifetimes, Values: p.Generic.Params.Values},
	}}
}

// isCopyType is the Copy-ness check closurelower needs to decide a
// synthesized struct's own is_copy marking (step 4) and the capture-class
// Copy-impl eligibility (step 6). A small duplicate of usageinfer's own
// isCopy rather than an exported cross-package helper: the two packages
// ask a structurally identical but conceptually separate question (one
// about an arbitrary expression's result type mid-body, the other about a
// freshly synthesized struct's own fields), and the check itself is a
// handful of lines.
func isCopyType(ty hir.Type) bool {
	switch v := ty.(type) {
	case *hir.Primitive:
		return v.Name != hir.PrimStr
	case *hir.Borrow:
		return v.Kind == hir.BorrowShared
	case *hir.Pointer:
		return true
	case *hir.Tuple:
		for _, e := range v.Elements {
			if !isCopyType(e) {
				return false
			}
		}
		return true
	case *hir.Array:
		return isCopyType(v.Element)
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil {
			return false
		}
		switch item := v.Path.Generic.ResolvedItem.(type) {
		case *hir.Struct:
			return item.Markings.IsCopy
		case *hir.Enum:
			return item.Markings.IsCopy
		default:
			return false
		}
	default:
		return false
	}
}
