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

// Package vtablegen implements pass H (spec.md §4.7): for every object-safe
// trait, synthesize a concrete struct describing its runtime dispatch
// table (drop glue, size, align, one function pointer per dispatchable
// method, one pointer per supertrait's own vtable), and record the
// method/associated-type slot assignments onto hir.Trait.
//
// A trait method's own (pre-instantiation) signature refers to its
// implicit `Self` type the same way a struct field refers to one of its
// own generic parameters: as a *hir.Generic with Group hir.GroupItem. This
// package reserves the name "Self" for that purpose (selfGeneric below) —
// a convention only vtablegen needs, since every other pass in this module
// only ever sees a method's signature after Self has already been
// substituted for a concrete impl's own SelfType (traitresolve/typeinfer
// operate on TraitImpl.Methods, not hir.Trait.Methods).
package vtablegen

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/hirvisit"
)

// selfGeneric is the sentinel this package treats as "the Self type" when
// reading a trait's own method declarations. Index is irrelevant (nothing
// substitutes into trait.Methods by index; only TypeIndexes/ValueIndexes,
// built by this package, ever get consulted afterward), so it is left
// zero.
var selfGeneric = &hir.Generic{Group: hir.GroupItem, Name: "Self"}

func isSelfType(t hir.Type) bool {
	g, ok := t.(*hir.Generic)
	return ok && g.Name == "Self"
}

// Generator drives vtable synthesis over one crate. New struct/static
// items go into a local hir.NewItemBuffer inside BuildTrait, the same
// buffer type every other synthesizing pass in this module uses, and
// BuildTrait flushes it immediately after each trait, since — unlike
// closurelower's per-function-body extraction — vtablegen's unit of work
// is naturally one trait at a time with nothing else contending for the
// same module.
type Generator struct {
	Crate   *hir.Crate
	Edition hirconfig.Edition

	// pending accumulates every parent-vtable placeholder field minted
	// during the first traversal, for fixupParentPointers to resolve once every
	// trait in the crate has gone through BuildTrait once (spec.md §4.7
	// step 5).
	pending []parentPlaceholder
}

// New returns a Generator ready to synthesize vtables for traits loaded
// into crate, gating edition-dependent object-safety rules by edition.
func New(crate *hir.Crate, edition hirconfig.Edition) *Generator {
	return &Generator{Crate: crate, Edition: edition}
}

// RunCrate implements HIR_Expand_VTables: build every trait's vtable (or
// mark it non-object-safe), then run the fixup pass that resolves
// parent-vtable placeholder types now that every trait's own ObjectSafe/
// VTableStructPath is final.
func (g *Generator) RunCrate() {
	hirvisit.Walk(g.Crate, &hirvisit.Visitor{
		VisitTrait: func(mod *hir.Module, name string, t *hir.Trait) {
			g.BuildTrait(mod, t)
		},
	})
	g.fixupParentPointers()
}
