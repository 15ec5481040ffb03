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

// ficCheckParams implements spec.md §4.2.3: unify the impl's Self type and
// trait arguments against the query, mint placeholders for anything left
// unbound, then return the filled substitution vector alongside the
// param-match grade (step 2 only; where-clause evaluation is
// checkImplBounds, run separately by the caller once it has the subst).
func ficCheckParams(r *Resolver, impl *hir.TraitImpl, trait *hir.GenericPath, ty hir.Type) ([]hir.Type, Grade) {
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

	if grade == Unequal {
		return nil, Unequal
	}

	id := r.implIdentity(impl)
	for i, s := range slots {
		if s == nil {
			slots[i] = &hir.Generic{Group: hir.GroupPlaceholder, Index: uint32(i), ImplID: id, IsPlaceholderUnknown: true}
		}
	}

	// spec.md §4.2.3 step 5: every impl generic implicitly requires
	// Sized, so a slot unification actually bound to a concrete/ivar type
	// (as opposed to one left as a synthesized placeholder, which has
	// nothing yet to check) must not resolve to a definitely-unsized type.
	for _, s := range slots {
		if ph, ok := s.(*hir.Generic); ok && ph.Group == hir.GroupPlaceholder {
			continue
		}
		if sizedGrade := r.typeIsSizedGrade(s); sizedGrade == Unequal {
			return nil, Unequal
		} else {
			grade = Min(grade, sizedGrade)
		}
	}

	return slots, grade
}

func implTraitParamTypes(g *hir.GenericPath) []hir.Type {
	if g == nil || g.Params == nil {
		return nil
	}
	return g.Params.Types
}

// unifyFuzz structurally unifies pattern (an impl-side type that may
// reference GroupImpl generics as free slots) against concrete (the
// query-side type), filling slots as it goes. It implements
// match_test_generics_fuzz's contract (spec.md §4.2.3 step 2): an
// unresolved ivar or unresolved UFCS path on the concrete side degrades
// the match to Fuzzy instead of failing outright.
func unifyFuzz(pattern, concrete hir.Type, slots []hir.Type) Grade {
	if g, ok := pattern.(*hir.Generic); ok && g.Group == hir.GroupImpl {
		if existing := slots[g.Index]; existing != nil {
			return unifyFuzz(existing, concrete, nil)
		}
		slots[g.Index] = concrete
		return Equal
	}
	switch c := concrete.(type) {
	case *hir.Infer:
		return Fuzzy
	case *hir.PathType:
		if c.Path.Kind == hir.PathUfcsUnknown {
			return Fuzzy
		}
	}

	switch p := pattern.(type) {
	case *hir.Primitive:
		c, ok := concrete.(*hir.Primitive)
		if ok && c.Name == p.Name {
			return Equal
		}
		return Unequal
	case *hir.Borrow:
		c, ok := concrete.(*hir.Borrow)
		if !ok || c.Kind != p.Kind {
			return Unequal
		}
		return unifyFuzz(p.Inner, c.Inner, slots)
	case *hir.Pointer:
		c, ok := concrete.(*hir.Pointer)
		if !ok || c.Kind != p.Kind {
			return Unequal
		}
		return unifyFuzz(p.Inner, c.Inner, slots)
	case *hir.Slice:
		c, ok := concrete.(*hir.Slice)
		if !ok {
			return Unequal
		}
		return unifyFuzz(p.Element, c.Element, slots)
	case *hir.Array:
		c, ok := concrete.(*hir.Array)
		if !ok || (p.Len.Known && c.Len.Known && p.Len.Value != c.Len.Value) {
			return Unequal
		}
		return unifyFuzz(p.Element, c.Element, slots)
	case *hir.Tuple:
		c, ok := concrete.(*hir.Tuple)
		if !ok || len(p.Elements) != len(c.Elements) {
			return Unequal
		}
		grade := Equal
		for i := range p.Elements {
			grade = Min(grade, unifyFuzz(p.Elements[i], c.Elements[i], slots))
		}
		return grade
	case *hir.FunctionType:
		c, ok := concrete.(*hir.FunctionType)
		if !ok || len(p.Args) != len(c.Args) {
			return Unequal
		}
		grade := unifyFuzz(p.Return, c.Return, slots)
		for i := range p.Args {
			grade = Min(grade, unifyFuzz(p.Args[i], c.Args[i], slots))
		}
		return grade
	case *hir.PathType:
		c, ok := concrete.(*hir.PathType)
		if !ok {
			return Unequal
		}
		return unifyPath(p.Path, c.Path, slots)
	case *hir.Generic:
		// A non-GroupImpl generic on the pattern side (e.g. a placeholder
		// minted by an earlier, outer match) only unifies with an
		// identical reference.
		c, ok := concrete.(*hir.Generic)
		if ok && c.Group == p.Group && c.Index == p.Index && c.ImplID == p.ImplID {
			return Equal
		}
		return Fuzzy
	default:
		if hir.TypesEqual(pattern, concrete) {
			return Equal
		}
		return Unequal
	}
}

func unifyPath(pattern, concrete *hir.Path, slots []hir.Type) Grade {
	if pattern.Kind != hir.PathGeneric || concrete.Kind != hir.PathGeneric {
		if hir.PathsEqual(pattern, concrete) {
			return Equal
		}
		return Fuzzy
	}
	pg, cg := pattern.Generic, concrete.Generic
	if len(pg.Segments) != len(cg.Segments) {
		return Unequal
	}
	for i := range pg.Segments {
		if pg.Segments[i] != cg.Segments[i] {
			return Unequal
		}
	}
	pt := implTraitParamTypes(pg)
	ct := implTraitParamTypes(cg)
	if len(pt) != len(ct) {
		return Unequal
	}
	grade := Equal
	for i := range pt {
		grade = Min(grade, unifyFuzz(pt[i], ct[i], slots))
	}
	return grade
}

// checkImplBounds implements spec.md §4.2.3 step 4: monomorphise every
// where-clause on impl through subst, expand associated types, and
// recursively resolve it, propagating the worst grade across all clauses.
func (r *Resolver) checkImplBounds(impl *hir.TraitImpl, subst []hir.Type) Grade {
	replace := func(g *hir.Generic) (hir.Type, bool) {
		if g.Group == hir.GroupImpl && int(g.Index) < len(subst) {
			return subst[g.Index], true
		}
		return nil, false
	}
	grade := Equal
	for _, bound := range impl.Bounds {
		if !bound.IsTraitBound() {
			continue
		}
		subject := substType(bound.Subject, replace)
		subject = r.ExpandAssociatedTypes(subject)
		boundTrait := substGenericPath(bound.Trait, replace)

		best := Unequal
		r.FindTraitImpls(boundTrait, subject, true, func(cand Candidate) bool {
			if cand.Grade > best {
				best = cand.Grade
			}
			return best == Equal
		})
		grade = Min(grade, best)
		if grade == Unequal {
			return Unequal
		}
	}
	return grade
}
