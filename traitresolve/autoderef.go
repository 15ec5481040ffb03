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

package traitresolve

import "github.com/rlang/hirxc/hir"

// derefTrait is the well-known path used both to query a user Deref impl
// and to name its Target associated type.
var derefTrait = &hir.GenericPath{Segments: []string{"Deref"}}

// Autoderef implements spec.md §4.2.1's autoderef: one dereference step.
// `&T` and arrays peel structurally; everything else goes through a
// Deref impl lookup and substitutes its Target. The second return is
// false once ty has no further deref step (the fixpoint is reached).
func (r *Resolver) Autoderef(ty hir.Type) (hir.Type, bool) {
	switch v := ty.(type) {
	case *hir.Borrow:
		return v.Inner, true
	case *hir.Array:
		return &hir.Slice{Element: v.Element}, true
	}

	var target hir.Type
	found := false
	r.FindTraitImpls(derefTrait, ty, true, func(cand Candidate) bool {
		if cand.Grade != Equal || cand.Impl.Trait == nil {
			return false
		}
		t, ok := cand.Impl.Trait.AssocTypes["Target"]
		if !ok {
			return false
		}
		replace := func(g *hir.Generic) (hir.Type, bool) {
			if g.Group == hir.GroupImpl && int(g.Index) < len(cand.Impl.Subst) {
				return cand.Impl.Subst[g.Index], true
			}
			return nil, false
		}
		target = substType(t, replace)
		found = true
		return true
	})
	if !found {
		return nil, false
	}
	return r.ExpandAssociatedTypes(target), true
}

// MethodCandidate is one answer from AutoderefFindMethod: the method
// found at a given deref depth, along with the receiver type it was
// found on (which may differ from the originally-queried top type).
type MethodCandidate struct {
	Depth    int
	Receiver hir.Type
	Method   *hir.Function
	// Trait/Subst let the caller build a UFCS-known call path
	// against the owning impl.
	Trait *hir.GenericPath
	Subst []hir.Type
}

// AutoderefFindMethod implements spec.md §4.2.1's autoderef_find_method:
// repeatedly deref top, and at each depth look for name among inherent
// impls of the current type, the traits named in traitsInScope, and (if
// the receiver is itself a TraitObject/ErasedType) its own methods.
// All candidates found at the first depth with any match are returned
// together (deeper depths are not searched) so the caller can apply its own disambiguation/ambiguity-error policy;
// an empty result means no depth found a match before the deref chain
// bottomed out.
func (r *Resolver) AutoderefFindMethod(traitsInScope []*hir.GenericPath, top hir.Type, name string) []MethodCandidate {
	var out []MethodCandidate
	ty := top
	depth := 0
	for {
		out = append(out, r.findMethodAtDepth(traitsInScope, ty, name, depth)...)
		if len(out) > 0 {
			return out
		}
		next, ok := r.Autoderef(ty)
		if !ok {
			return nil
		}
		ty = next
		depth++
	}
}

func (r *Resolver) findMethodAtDepth(traitsInScope []*hir.GenericPath, ty hir.Type, name string, depth int) []MethodCandidate {
	var out []MethodCandidate

	for _, impl := range r.Crate.TypeImplCandidates(ty) {
		for _, m := range impl.Methods {
			if m.Name == name {
				out = append(out, MethodCandidate{Depth: depth, Receiver: ty, Method: m})
			}
		}
	}

	for _, trait := range traitsInScope {
		r.FindTraitImpls(trait, ty, true, func(cand Candidate) bool {
			if cand.Grade == Unequal || cand.Impl.Trait == nil {
				return false
			}
			for _, m := range cand.Impl.Trait.Methods {
				if m.Name == name {
					out = append(out, MethodCandidate{
						Depth: depth, Receiver: ty, Method: m,
						Trait: trait, Subst: cand.Impl.Subst,
					})
				}
			}
			return false
		})
	}

	switch v := ty.(type) {
	case *hir.TraitObject:
		if decl, ok := v.Principal.ResolvedItem.(*hir.Trait); ok {
			for _, m := range decl.Methods {
				if m.Name == name {
					out = append(out, MethodCandidate{Depth: depth, Receiver: ty, Method: m, Trait: v.Principal})
				}
			}
		}
	case *hir.ErasedType:
		for _, b := range v.Bounds {
			if decl, ok := b.ResolvedItem.(*hir.Trait); ok {
				for _, m := range decl.Methods {
					if m.Name == name {
						out = append(out, MethodCandidate{Depth: depth, Receiver: ty, Method: m, Trait: b})
					}
				}
			}
		}
	}

	return out
}

// FieldCandidate is one answer from AutoderefFindField.
type FieldCandidate struct {
	Depth    int
	Receiver hir.Type
	FieldTy  hir.Type
}

// AutoderefFindField implements spec.md §4.2.1's autoderef_find_field:
// the same deref walk as AutoderefFindMethod, but matching struct/union
// field names instead of methods.
func (r *Resolver) AutoderefFindField(top hir.Type, name string) (FieldCandidate, bool) {
	ty := top
	depth := 0
	for {
		if s, ok := structOf(ty); ok {
			for _, f := range s.Fields {
				if f.Name == name {
					return FieldCandidate{Depth: depth, Receiver: ty, FieldTy: f.Ty}, true
				}
			}
		}
		if pt, ok := ty.(*hir.PathType); ok && pt.Path.Kind == hir.PathGeneric && pt.Path.Generic != nil {
			if u, ok := pt.Path.Generic.ResolvedItem.(*hir.Union); ok {
				for _, f := range u.Fields {
					if f.Name == name {
						return FieldCandidate{Depth: depth, Receiver: ty, FieldTy: f.Ty}, true
					}
				}
			}
		}
		next, ok := r.Autoderef(ty)
		if !ok {
			return FieldCandidate{}, false
		}
		ty = next
		depth++
	}
}
