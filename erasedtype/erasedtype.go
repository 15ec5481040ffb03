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

// Package erasedtype implements spec.md §4.11: replacing every
// `impl Trait` return-position placeholder (hir.ErasedType) with the
// concrete type it was erased from, wherever it appears — function
// signatures and bodies, static/const types, struct fields, enum variants.
package erasedtype

import "github.com/rlang/hirxc/hir"

// Resolver substitutes hir.ErasedType nodes reachable from a crate.
type Resolver struct {
	Crate *hir.Crate
}

// New returns a Resolver for crate.
func New(crate *hir.Crate) *Resolver { return &Resolver{Crate: crate} }

// resolveType replaces every ErasedType found anywhere within ty with the
// concrete type it names. callArgs is the generic argument list supplied by
// the call site that produced ty (non-nil only when ty is the result type
// of a CallPath through a generic-origin erased type); it is nil for a
// declaring position — a function's own signature, a struct field, a
// static's type — where an erased type still references its own function's
// generics directly rather than through a use site's substitution.
func (r *Resolver) resolveType(ty hir.Type, callArgs []hir.Type) hir.Type {
	switch v := ty.(type) {
	case nil:
		return nil
	case *hir.ErasedType:
		return r.resolveErased(v, callArgs)
	case *hir.Borrow:
		n := *v
		n.Inner = r.resolveType(v.Inner, callArgs)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = r.resolveType(v.Inner, callArgs)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: r.resolveType(v.Element, callArgs)}
	case *hir.Array:
		n := *v
		n.Element = r.resolveType(v.Element, callArgs)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = r.resolveType(e, callArgs)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = r.resolveType(a, callArgs)
		}
		n.Return = r.resolveType(v.Return, callArgs)
		return &n
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return v
		}
		types := make([]hir.Type, len(v.Path.Generic.Params.Types))
		for i, t := range v.Path.Generic.Params.Types {
			types[i] = r.resolveType(t, callArgs)
		}
		np := *v.Path.Generic.Params
		np.Types = types
		ng := *v.Path.Generic
		ng.Params = &np
		return &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &ng}}
	default:
		return ty
	}
}

// resolveErased resolves a single ErasedType node, recursing through
// resolveType on the substituted result so a chained erased type (one
// `impl Trait` whose table entry itself names another function's erased
// type) is fully expanded rather than left one layer deep.
func (r *Resolver) resolveErased(et *hir.ErasedType, callArgs []hir.Type) hir.Type {
	fn := et.Origin.Function
	if fn == nil || et.Index < 0 || et.Index >= len(fn.ErasedTypes) {
		return et
	}
	stored := fn.ErasedTypes[et.Index]

	switch {
	case et.Origin.SelfType != nil:
		slots, ok := r.implGenericSlots(et.Origin)
		if !ok {
			// No owning impl could be matched (shouldn't happen once typeck
			// has resolved the origin); leave the node as-is rather than
			// substitute something wrong.
			return et
		}
		return r.resolveType(substGroup(stored, hir.GroupImpl, slots), nil)
	case len(callArgs) > 0:
		return r.resolveType(substGroup(stored, hir.GroupItem, callArgs), nil)
	default:
		return r.resolveType(stored, nil)
	}
}

// implGenericSlots locates the inherent impl that declares origin.Function
// and recovers its generic-parameter bindings by unifying the impl's
// (pattern) SelfType against origin.SelfType (concrete).
func (r *Resolver) implGenericSlots(origin hir.ErasedOrigin) ([]hir.Type, bool) {
	for _, impl := range r.Crate.TypeImplCandidates(origin.SelfType) {
		if !implHasMethod(impl, origin.Function) {
			continue
		}
		slots := make([]hir.Type, impl.Generics.NumParams())
		if unifySelfType(impl.SelfType, origin.SelfType, slots) {
			return slots, true
		}
	}
	return nil, false
}

func implHasMethod(impl *hir.TypeImpl, target *hir.Function) bool {
	for _, m := range impl.Methods {
		if m == target {
			return true
		}
	}
	return false
}

// pathCallArgs returns the generic arguments supplied at a PathGeneric call
// site, or nil for any other path kind.
func pathCallArgs(p *hir.Path) []hir.Type {
	if p == nil || p.Kind != hir.PathGeneric || p.Generic == nil || p.Generic.Params == nil {
		return nil
	}
	return p.Generic.Params.Types
}
