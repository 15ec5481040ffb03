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

// EqualityHint is emitted by CanUnsize when a Fuzzy answer can be firmed
// up by equating two types once inference has more information; callers
// that care (typeinfer) pass a non-nil infer to receive it.
type EqualityHint struct {
	Left, Right hir.Type
}

// CanUnsize implements spec.md §4.2.5: "can a value of src unsize to
// dst?". newType, if non-nil, is passed down through the struct-to-struct
// recursion case, wrapped to rebuild the outer struct type, but no case of
// CanUnsize ever calls it, so no refined destination type is reported;
// infer, if non-nil, receives an EqualityHint when dst/src both still
// carry inference variables.
func (r *Resolver) CanUnsize(dst, src hir.Type, newType func(hir.Type), infer func(EqualityHint)) Grade {
	if hir.TypesEqual(dst, src) {
		return Unequal
	}
	if isIvarOnly(dst) || isIvarOnly(src) {
		if infer != nil {
			infer(EqualityHint{Left: dst, Right: src})
		}
		return Fuzzy
	}

	if r.hasUnsizeBound(src, dst) {
		return Equal
	}

	if srcPath, ok := src.(*hir.PathType); ok && srcPath.Path.Kind == hir.PathUfcsKnown {
		// src = <X as Tr>::Aty with an ATY bound Unsize<dst-template>.
		if assoc, ok := srcPath.Path.UfcsTrait.ResolvedItem.(*hir.Trait); ok {
			for _, at := range assoc.AssocTypes {
				if at.Name != srcPath.Path.UfcsItem {
					continue
				}
				for _, b := range at.Bounds {
					if traitName(b) == "Unsize" && b.Params != nil && len(b.Params.Types) == 1 {
						if hir.TypesEqual(b.Params.Types[0], dst) {
							return Equal
						}
						return Fuzzy
					}
				}
			}
		}
	}

	if dstStruct, dstOK := structOf(dst); dstOK {
		if srcStruct, srcOK := structOf(src); srcOK && dstStruct == srcStruct {
			return r.canUnsizeStructTail(dst, src, dstStruct, newType, infer)
		}
	}

	if dstObj, ok := dst.(*hir.TraitObject); ok {
		if srcObj, ok := src.(*hir.TraitObject); ok {
			return canUnsizeObjToObj(dstObj, srcObj)
		}
		return r.canUnsizeToTraitObject(dstObj, src)
	}

	if dstSlice, ok := dst.(*hir.Slice); ok {
		if srcArr, ok := src.(*hir.Array); ok {
			return unifyFuzz(dstSlice.Element, srcArr.Element, nil)
		}
	}

	return Unequal
}

func isIvarOnly(t hir.Type) bool {
	_, ok := t.(*hir.Infer)
	return ok
}

// hasUnsizeBound reports whether the current function body's bound cache
// (spec.md §4.3.3, installed by typeinfer.SetBounds before inference over
// each body) carries a `src: Unsize<dst>` entry.
func (r *Resolver) hasUnsizeBound(src, dst hir.Type) bool {
	entries, ok := r.boundCache.Load(currentBoundScope)
	if !ok {
		return false
	}
	for _, e := range entries {
		if traitName(e.Trait) != "Unsize" || !hir.TypesEqual(e.Subject, src) {
			continue
		}
		if e.Trait.Params != nil && len(e.Trait.Params.Types) == 1 && hir.TypesEqual(e.Trait.Params.Types[0], dst) {
			return true
		}
	}
	return false
}

func structOf(t hir.Type) (*hir.Struct, bool) {
	pt, ok := t.(*hir.PathType)
	if !ok || pt.Path.Kind != hir.PathGeneric || pt.Path.Generic == nil {
		return nil, false
	}
	s, ok := pt.Path.Generic.ResolvedItem.(*hir.Struct)
	return s, ok
}

// canUnsizeStructTail implements the struct-to-struct recursion case:
// both dst and src name the same struct, so the only possible unsizing is
// on the struct's own designated unsized tail field.
func (r *Resolver) canUnsizeStructTail(dst, src hir.Type, s *hir.Struct, newType func(hir.Type), infer func(EqualityHint)) Grade {
	if s.Markings.UnsizedParam < 0 {
		return Unequal
	}
	dstPath, dstOK := dst.(*hir.PathType)
	srcPath, srcOK := src.(*hir.PathType)
	if !dstOK || !srcOK || dstPath.Path.Generic.Params == nil || srcPath.Path.Generic.Params == nil {
		return Unequal
	}
	idx := s.Markings.UnsizedParam
	if idx >= len(dstPath.Path.Generic.Params.Types) || idx >= len(srcPath.Path.Generic.Params.Types) {
		return Unequal
	}
	dstTail := dstPath.Path.Generic.Params.Types[idx]
	srcTail := srcPath.Path.Generic.Params.Types[idx]
	grade := r.CanUnsize(dstTail, srcTail, func(refined hir.Type) {
		if newType != nil {
			rebuilt := *dstPath
			rebuiltParams := *dstPath.Path.Generic.Params
			types := append([]hir.Type{}, rebuiltParams.Types...)
			types[idx] = refined
			rebuiltParams.Types = types
			rebuiltGeneric := *dstPath.Path.Generic
			rebuiltGeneric.Params = &rebuiltParams
			rebuiltPath := *dstPath.Path
			rebuiltPath.Generic = &rebuiltGeneric
			rebuilt.Path = &rebuiltPath
			newType(&rebuilt)
		}
	}, infer)
	return grade
}

// canUnsizeToTraitObject implements "TraitObject ← T": T must implement
// the principal trait with the object's required parameters, plus every
// marker trait.
func (r *Resolver) canUnsizeToTraitObject(dst *hir.TraitObject, src hir.Type) Grade {
	if _, ok := src.(*hir.TraitObject); ok {
		return Unequal // handled by canUnsizeObjToObj instead
	}
	best := Unequal
	r.FindTraitImpls(dst.Principal, src, true, func(cand Candidate) bool {
		best = cand.Grade
		return best != Fuzzy
	})
	if best == Unequal {
		return Unequal
	}
	for _, m := range dst.Markers {
		g := r.ResolveAutoTrait(m, src)
		best = Min(best, g)
		if best == Unequal {
			return Unequal
		}
	}
	return best
}

// canUnsizeObjToObj implements "TraitObject ← TraitObject": identical
// principal, destination markers a subset of source markers.
func canUnsizeObjToObj(dst, src *hir.TraitObject) Grade {
	if !hir.GenericPathsEqual(dst.Principal, src.Principal) {
		return Unequal
	}
	for _, dm := range dst.Markers {
		found := false
		for _, sm := range src.Markers {
			if hir.GenericPathsEqual(dm, sm) {
				found = true
				break
			}
		}
		if !found {
			return Unequal
		}
	}
	return Equal
}
