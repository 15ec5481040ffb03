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

// ResolveAutoTrait implements spec.md §4.2.4: resolution for traits
// marked IsMarker (Send, Sync, and friends, plus any user-declared
// auto/OIBIT trait). It is intentionally a separate entry point from
// FindTraitImpls, since auto-traits use their own cache, their own
// recursion stack (re-entry answers Equal rather than failing), and a
// "destructure into every component type" fallback FindTraitImpls has no
// equivalent of.
func (r *Resolver) ResolveAutoTrait(trait *hir.GenericPath, ty hir.Type) Grade {
	key := queryKey{trait: trait.String(), ty: typeKey(ty)}
	if g, ok := r.autoTraitCache.Load(key); ok {
		return g
	}

	guard, entered := r.autoRecursion.Enter(key)
	if !entered {
		// spec.md §4.2.4 step 2: re-entry defaults to Equal, the standard
		// coinductive answer for auto traits (a recursive struct is Send
		// if assuming it's Send doesn't lead to a contradiction).
		return Equal
	}
	defer guard.Exit()

	grade := r.resolveAutoTraitUncached(trait, ty)
	r.autoTraitCache.Store(key, grade)
	return grade
}

func (r *Resolver) resolveAutoTraitUncached(trait *hir.GenericPath, ty hir.Type) Grade {
	for _, impl := range r.Crate.MarkerImplCandidates(trait, ty) {
		if impl.Negative {
			continue
		}
		if _, grade := ficMarkerCheckParams(r, impl, trait, ty); grade != Unequal {
			return grade
		}
	}
	for _, impl := range r.Crate.MarkerImplCandidates(trait, ty) {
		if !impl.Negative {
			continue
		}
		if _, grade := ficMarkerCheckParams(r, impl, trait, ty); grade == Equal {
			return Unequal
		}
	}
	return r.destructureAutoTrait(trait, ty)
}

// ficMarkerCheckParams is ficCheckParams's counterpart for MarkerImpl (no
// associated-type or method payload, and no where-clause evaluation
// beyond the outlives/trait bounds already captured on the impl).
func ficMarkerCheckParams(r *Resolver, impl *hir.MarkerImpl, trait *hir.GenericPath, ty hir.Type) ([]hir.Type, Grade) {
	n := impl.Generics.NumParams()
	slots := make([]hir.Type, n)
	grade := unifyFuzz(impl.SelfType, ty, slots)
	implArgs := implTraitParamTypes(impl.Trait)
	queryArgs := implTraitParamTypes(trait)
	if len(implArgs) == len(queryArgs) {
		for i := range implArgs {
			grade = Min(grade, unifyFuzz(implArgs[i], queryArgs[i], slots))
		}
	} else if len(implArgs) != 0 || len(queryArgs) != 0 {
		grade = Unequal
	}
	return slots, grade
}

// destructureAutoTrait implements spec.md §4.2.4 step 4: with no impl
// found either way, an auto trait holds for T iff it holds for every
// type T is composed of.
func (r *Resolver) destructureAutoTrait(trait *hir.GenericPath, ty hir.Type) Grade {
	switch v := ty.(type) {
	case *hir.Infer:
		return Fuzzy
	case *hir.Primitive, *hir.FunctionType, *hir.Pointer:
		return Equal
	case *hir.Borrow:
		return r.ResolveAutoTrait(trait, v.Inner)
	case *hir.Slice:
		return r.ResolveAutoTrait(trait, v.Element)
	case *hir.Array:
		return r.ResolveAutoTrait(trait, v.Element)
	case *hir.Tuple:
		grade := Equal
		for _, e := range v.Elements {
			grade = Min(grade, r.ResolveAutoTrait(trait, e))
		}
		return grade
	case *hir.ClosureType:
		grade := Equal
		for _, c := range v.Node.Captures {
			grade = Min(grade, r.ResolveAutoTrait(trait, c.FieldType))
		}
		return grade
	case *hir.PathType:
		return r.destructurePath(trait, v.Path)
	case *hir.Generic:
		if v.Group == hir.GroupPlaceholder {
			return Fuzzy
		}
		// An unbound (non-placeholder) generic parameter has no component
		// types to destructure, and auto-trait resolution does not consult
		// the generic-bound table, so the answer stays Fuzzy.
		return Fuzzy
	default:
		return Fuzzy
	}
}

func (r *Resolver) destructurePath(trait *hir.GenericPath, p *hir.Path) Grade {
	if p.Kind != hir.PathGeneric || p.Generic == nil {
		return Fuzzy
	}
	switch item := p.Generic.ResolvedItem.(type) {
	case *hir.Struct:
		grade := Equal
		for _, f := range item.Fields {
			grade = Min(grade, r.ResolveAutoTrait(trait, f.Ty))
		}
		return grade
	case *hir.Enum:
		grade := Equal
		for _, v := range item.Variants {
			for _, f := range v.Fields {
				grade = Min(grade, r.ResolveAutoTrait(trait, f.Ty))
			}
		}
		return grade
	case *hir.Union:
		grade := Equal
		for _, f := range item.Fields {
			grade = Min(grade, r.ResolveAutoTrait(trait, f.Ty))
		}
		return grade
	default:
		return Fuzzy
	}
}
