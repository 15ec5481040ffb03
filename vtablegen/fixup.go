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

// fixupParentPointers implements spec.md §4.7 step 5: now that every
// trait in the crate has been through BuildTrait once, resolve each
// pending parent-vtable-pointer field to `&Parent#vtable<...>` when the
// parent trait turned out object safe, leaving the `()` fallback in
// place otherwise. This must run as a second pass because a supertrait
// declared later in traversal order (or in a different module) might not
// have its own ObjectSafe/VTableStructPath decided yet during the first
// pass.
func (g *Generator) fixupParentPointers() {
	for _, p := range g.pending {
		parentTrait, ok := p.parent.ResolvedItem.(*hir.Trait)
		if !ok || !parentTrait.ObjectSafe {
			continue // leave the () fallback: parent isn't object safe (or unresolved)
		}
		args, ok := parentVTableArgs(parentTrait, p.childAtyIndex)
		if !ok {
			continue // an associated type the parent's vtable needs isn't reachable from the child's bound-table
		}
		path := *parentTrait.VTableStructPath
		path.Generic = &hir.GenericPath{
			Segments:     path.Generic.Segments,
			Params:       &hir.PathParams{Types: args},
			ResolvedItem: path.Generic.ResolvedItem,
		}
		p.childStruct.Fields[p.fieldIndex].Ty = &hir.Borrow{
			Kind:     hir.BorrowShared,
			Lifetime: hir.Static,
			Inner:    &hir.PathType{Path: &path},
		}
	}
	g.pending = nil
}

// parentVTableArgs builds the type arguments for instantiating a parent
// trait's vtable struct from within a child trait's own vtable: one type
// argument per parent associated type, resolved against the child's
// unified associated-type index (the "child trait's bound-table") since
// spec.md §4.7 step 2.4 unifies a trait's own and every supertrait's
// associated types into one flat indexed set — a parent's ATY and the
// child's copy of that same ATY always share a name and so the same
// a#Name generic.
func parentVTableArgs(parent *hir.Trait, childAtyIndex map[string]int) ([]hir.Type, bool) {
	names, ok := unifiedAssocTypes(parent)
	if !ok {
		return nil, false
	}
	args := make([]hir.Type, len(names))
	for i, name := range names {
		idx, ok := childAtyIndex[name]
		if !ok {
			return nil, false
		}
		args[i] = &hir.Generic{Group: hir.GroupItem, Index: uint32(idx), Name: "a#" + name}
	}
	return args, true
}
