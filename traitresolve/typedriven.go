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

// findTypeDrivenImpl implements spec.md §4.2.2 step 2: trait objects and
// erased types answer queries about their own principal/marker traits
// directly (or by walking their transitively-closed supertrait set);
// placeholder generics answer Fuzzy to every query; an unresolved
// associated-type projection (Path bound to Opaque) falls back to its
// declared bounds.
func (r *Resolver) findTypeDrivenImpl(trait *hir.GenericPath, ty hir.Type) (Candidate, bool) {
	switch v := ty.(type) {
	case *hir.TraitObject:
		return r.findInTraitObject(trait, v)
	case *hir.ErasedType:
		return r.findInErasedType(trait, v)
	case *hir.Generic:
		if v.Group == hir.GroupPlaceholder {
			return Candidate{Grade: Fuzzy}, true
		}
		return Candidate{}, false
	}
	return Candidate{}, false
}

func (r *Resolver) findInTraitObject(trait *hir.GenericPath, obj *hir.TraitObject) (Candidate, bool) {
	if hir.GenericPathsEqual(trait, obj.Principal) {
		return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{AssocTypes: obj.AssociatedTys}}}, true
	}
	for _, m := range obj.Markers {
		if hir.GenericPathsEqual(trait, m) {
			return Candidate{Grade: Equal}, true
		}
	}
	return r.findNamedTraitInTrait(trait, obj.Principal, obj.AssociatedTys)
}

// findNamedTraitInTrait walks principal's transitively-closed supertrait
// set (m_all_parent_traits) looking for trait, monomorphising each
// supertrait's own declared parameters against principal's.
func (r *Resolver) findNamedTraitInTrait(trait, principal *hir.GenericPath, assoc map[string]hir.Type) (Candidate, bool) {
	decl, ok := principal.ResolvedItem.(*hir.Trait)
	if !ok {
		return Candidate{Grade: Fuzzy}, true
	}
	for _, parent := range decl.AllParentTraits {
		mono := monomorphiseGenericPath(parent, principal.Params)
		if hir.GenericPathsEqual(trait, mono) {
			return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{AssocTypes: assoc}}}, true
		}
	}
	return Candidate{Grade: Unequal}, true
}

func (r *Resolver) findInErasedType(trait *hir.GenericPath, et *hir.ErasedType) (Candidate, bool) {
	for _, b := range et.Bounds {
		if hir.GenericPathsEqual(trait, b) {
			return Candidate{Grade: Equal}, true
		}
		if decl, ok := b.ResolvedItem.(*hir.Trait); ok {
			for _, parent := range decl.AllParentTraits {
				mono := monomorphiseGenericPath(parent, b.Params)
				if hir.GenericPathsEqual(trait, mono) {
					return Candidate{Grade: Equal}, true
				}
			}
		}
	}
	return Candidate{Grade: Unequal}, true
}

// monomorphiseGenericPath substitutes a trait declaration's own generic
// parameter references (group hir.GroupItem) inside path with the
// concrete arguments supplied at args, used when walking a supertrait
// declaration written in terms of the subtrait's own parameters.
func monomorphiseGenericPath(path *hir.GenericPath, args *hir.PathParams) *hir.GenericPath {
	if path == nil || args == nil {
		return path
	}
	return substGenericPath(path, func(g *hir.Generic) (hir.Type, bool) {
		if g.Group == hir.GroupItem && int(g.Index) < len(args.Types) {
			return args.Types[g.Index], true
		}
		return nil, false
	})
}
