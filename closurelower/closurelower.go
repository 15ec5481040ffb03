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

// Package closurelower implements pass C (spec.md §4.5): it extracts every
// Closure/Generator expression node into a freshly synthesized struct with
// Fn/FnMut/FnOnce (or Generator) trait impls, consuming the usage
// annotation usageinfer (pass B) already assigned to every captured
// variable's occurrences.
package closurelower

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// NewTypeFunc is the caller-supplied callback spec.md §4.5 step 4 asks
// for: it decides which module a synthesized struct belongs in and hands
// back a name guaranteed unique within it (the driver typically derives
// this from the enclosing function's own path plus a dense counter).
type NewTypeFunc func() (name string, owner *hir.Module)

// Extractor drives the closure/generator extraction pass over one crate.
// A single Extractor can be reused across every function body in the
// crate; synthesized items accumulate in Buffer until the caller flushes
// it (mirroring the "never mutate the container being iterated" rule
// every other synthesizing pass in this module follows).
type Extractor struct {
	Crate   *hir.Crate
	NewType NewTypeFunc
	Buffer  hir.NewItemBuffer
}

// New returns an Extractor that synthesizes new items via newType,
// buffering them for the caller to Buffer.Flush once the crate-wide
// traversal is done.
func New(crate *hir.Crate, newType NewTypeFunc) *Extractor {
	return &Extractor{Crate: crate, NewType: newType}
}

// Extract walks *body and extracts every Closure/Generator node it finds.
// itemGenerics/implGenerics are the enclosing function's own and (for a
// method) its owning impl's generic parameters; selfInScope is true when
// the enclosing function has a Self type (a method, not a free function).
func (x *Extractor) Extract(body *hir.Expr, itemGenerics, implGenerics *hir.GenericParams, selfInScope bool) {
	if body == nil || *body == nil {
		return
	}
	v := &extractVisitor{x: x, itemGenerics: itemGenerics, implGenerics: implGenerics, selfInScope: selfInScope}
	hirvisit.WalkExpr(body, v)
}

// extractVisitor drives the leaves-up ordering spec.md §4.5 requires:
// "visit(ExprNode_Closure) first recurses into the body ... then performs
// steps 1-7." It intercepts Closure/Generator nodes itself (returning
// false so hirvisit.WalkExpr does not also descend into the
// already-fully-handled replacement) and lets everything else pass
// through for hirvisit's normal recursion.
type extractVisitor struct {
	x                          *Extractor
	itemGenerics, implGenerics *hir.GenericParams
	selfInScope                bool
}

func (v *extractVisitor) VisitExpr(ptr *hir.Expr) bool {
	switch n := (*ptr).(type) {
	case *hir.ExprClosure:
		hirvisit.WalkExpr(&n.Body, v)
		v.x.lowerClosure(ptr, n, v.itemGenerics, v.implGenerics, v.selfInScope)
		return false
	case *hir.ExprGenerator:
		hirvisit.WalkExpr(&n.Body, v)
		v.x.lowerGenerator(ptr, n, v.itemGenerics, v.implGenerics, v.selfInScope)
		return false
	default:
		return true
	}
}

// buildTypePath constructs a path naming the just-synthesized item owned
// by mod, parameterized by its own generics (so the closure/generator
// site refers to e.g. `Closure0<T0, T1>` rather than the bare name).
func buildTypePath(mod *hir.Module, name string, generics *hir.GenericParams, resolvedItem any) *hir.Path {
	segs := append(append([]string{}, mod.Path...), name)
	var params *hir.PathParams
	if n := generics.NumParams(); n > 0 {
		types := make([]hir.Type, 0, len(generics.TypeNames))
		for i, tn := range generics.TypeNames {
			types = append(types, &hir.Generic{Group: hir.GroupItem, Index: uint32(i), Name: tn})
		}
		params = &hir.PathParams{Types: types}
	}
	return &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: segs, Params: params, ResolvedItem: resolvedItem}}
}

// captureClass is which of the four dispatch shapes spec.md §4.5 step 5
// lists applies to a capture set, decided from the strictest usage any
// capture demands (no captures at all is its own NoCapture case).
type captureClass uint8

const (
	classNoCapture captureClass = iota
	classShared
	classMut
	classOnce
)

func classify(captures []capture) captureClass {
	if len(captures) == 0 {
		return classNoCapture
	}
	u := captures[0].Usage
	for _, c := range captures[1:] {
		u = hir.CombineUsage(u, c.Usage)
	}
	switch u {
	case hir.UsageBorrow:
		return classShared
	case hir.UsageMutate:
		return classMut
	default:
		return classOnce
	}
}
