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

// traitName returns the bare name a built-in dispatch switches on (the
// magic traits are always referred to by their final path segment,
// regardless of which prelude module re-exports them).
func traitName(trait *hir.GenericPath) string {
	if trait == nil || len(trait.Segments) == 0 {
		return ""
	}
	return trait.Segments[len(trait.Segments)-1]
}

// findBuiltinImpl implements spec.md §4.2.2 step 1: the magic traits that
// bypass the crate's impl tables entirely. handled is false when trait
// isn't one of the magic names, in which case the caller falls through to
// the type-driven/bound/crate-search steps.
func (r *Resolver) findBuiltinImpl(trait *hir.GenericPath, ty hir.Type) (Candidate, bool) {
	switch traitName(trait) {
	case "Sized":
		return Candidate{Grade: r.typeIsSizedGrade(ty), Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinSized}}}, true
	case "Copy":
		return Candidate{Grade: r.typeIsCopyGrade(ty), Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinCopy}}}, true
	case "Clone":
		grade := r.typeIsCopyGrade(ty)
		if grade == Unequal || !r.Config.Edition.HasMagicClone() {
			// Clone has a magic answer only from edition 1.29 on, and only
			// for what the Copy leg accepts; a non-Copy type still needs an
			// explicit impl, so the query falls through to the bound and
			// crate-level search.
			return Candidate{}, false
		}
		return Candidate{Grade: grade, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinClone}}}, true

	case "Fn", "FnMut", "FnOnce":
		return r.findCallableImpl(trait, ty)

	case "Generator":
		if g, ok := ty.(*hir.GeneratorType); ok {
			assoc := map[string]hir.Type{
				"Yield":  g.Node.YieldType,
				"Return": g.Node.ReturnType,
			}
			return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinGenerator, AssocTypes: assoc}}}, true
		}
		return Candidate{}, false

	case "DiscriminantKind":
		if !r.Config.Edition.HasDiscriminantKind() {
			return Candidate{}, false
		}
		return r.findDiscriminantKindImpl(ty)

	case "Pointee":
		return r.findPointeeImpl(ty)

	case "Unsize":
		if trait.Params == nil || len(trait.Params.Types) != 1 {
			return Candidate{}, false
		}
		dst := trait.Params.Types[0]
		grade := r.CanUnsize(dst, ty, nil, nil)
		return Candidate{Grade: grade, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinUnsize}}}, true

	case "CoerceUnsized":
		// Only *mut T -> *const T is native (spec.md §4.2.2 step 1g); every
		// other coercion needs an explicit impl, so we report Unequal here
		// rather than "not handled" to stop the crate-level search from
		// being fooled by an unrelated same-named trait.
		if trait.Params == nil || len(trait.Params.Types) != 1 {
			return Candidate{}, false
		}
		src, srcOK := ty.(*hir.Pointer)
		dst, dstOK := trait.Params.Types[0].(*hir.Pointer)
		if srcOK && dstOK && src.Kind == hir.PointerMut && dst.Kind == hir.PointerConst && hir.TypesEqual(src.Inner, dst.Inner) {
			return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinCoerceUnsized}}}, true
		}
		return Candidate{Grade: Unequal, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinCoerceUnsized}}}, true
	}
	return Candidate{}, false
}

// typeIsSizedGrade implements the `Sized` leg of spec.md §4.2.2 step 1a.
func (r *Resolver) typeIsSizedGrade(ty hir.Type) Grade {
	switch v := ty.(type) {
	case *hir.Infer:
		return Fuzzy
	case *hir.Slice:
		return Unequal
	case *hir.Primitive:
		if v.Name == hir.PrimStr {
			return Unequal
		}
		return Equal
	case *hir.TraitObject:
		return Unequal
	case *hir.PathType:
		return r.pathMarkingsSized(v.Path)
	case *hir.Array, *hir.Tuple, *hir.Borrow, *hir.Pointer, *hir.FunctionType,
		*hir.ClosureType, *hir.GeneratorType, *hir.Generic:
		return Equal
	default:
		return Equal
	}
}

// pathMarkingsSized consults the resolved struct's markings (the
// DstType/UnsizedParam fields) when ResolvedItem already points at it;
// otherwise the path names something else entirely (a trait alias, an
// associated-type projection) that Sized can't be decided for without
// further normalization, so we report Fuzzy.
func (r *Resolver) pathMarkingsSized(p *hir.Path) Grade {
	if p.Kind != hir.PathGeneric || p.Generic == nil {
		return Fuzzy
	}
	if s, ok := p.Generic.ResolvedItem.(*hir.Struct); ok {
		if s.Markings.UnsizedParam < 0 {
			return Equal
		}
		return Unequal
	}
	return Fuzzy
}

// typeIsCopyGrade implements the `Copy` leg of spec.md §4.2.2 step 1a.
func (r *Resolver) typeIsCopyGrade(ty hir.Type) Grade {
	switch v := ty.(type) {
	case *hir.Infer:
		return Fuzzy
	case *hir.Primitive:
		if v.Name == hir.PrimStr {
			return Unequal
		}
		return Equal
	case *hir.Borrow:
		if v.Kind == hir.BorrowShared {
			return Equal
		}
		return Unequal
	case *hir.Pointer:
		return Equal
	case *hir.Tuple:
		grade := Equal
		for _, e := range v.Elements {
			grade = Min(grade, r.typeIsCopyGrade(e))
		}
		return grade
	case *hir.Array:
		return r.typeIsCopyGrade(v.Element)
	case *hir.ClosureType:
		if v.IsCopy {
			return Equal
		}
		return Unequal
	case *hir.PathType:
		if v.Path.Kind == hir.PathGeneric && v.Path.Generic != nil {
			if s, ok := v.Path.Generic.ResolvedItem.(*hir.Struct); ok {
				if s.Markings.IsCopy {
					return Equal
				}
				return Unequal
			}
			if e, ok := v.Path.Generic.ResolvedItem.(*hir.Enum); ok {
				if e.Markings.IsCopy {
					return Equal
				}
				return Unequal
			}
		}
		return Fuzzy
	case *hir.TraitObject, *hir.Slice:
		return Unequal
	default:
		return Fuzzy
	}
}

// findCallableImpl implements spec.md §4.2.2 step 1b: synthesize a
// Fn/FnMut/FnOnce impl for a closure or function-pointer type whose
// argument tuple matches the trait's parenthesized parameter list.
func (r *Resolver) findCallableImpl(trait *hir.GenericPath, ty hir.Type) (Candidate, bool) {
	var args []hir.Type
	var ret hir.Type
	switch v := ty.(type) {
	case *hir.ClosureType:
		for _, p := range v.Node.Params {
			args = append(args, p.Ty)
		}
		ret = v.Node.RetType
	case *hir.FunctionType:
		if !v.IsRustABI() {
			return Candidate{Grade: Unequal}, true
		}
		args = v.Args
		ret = v.Return
	default:
		return Candidate{}, false
	}
	var want []hir.Type
	if trait.Params != nil {
		want = trait.Params.Types
	}
	if len(want) != len(args) {
		return Candidate{Grade: Unequal}, true
	}
	for i := range want {
		if !hir.TypesEqual(want[i], args[i]) {
			return Candidate{Grade: Unequal}, true
		}
	}
	kind := BuiltinFn
	switch traitName(trait) {
	case "FnMut":
		kind = BuiltinFnMut
	case "FnOnce":
		kind = BuiltinFnOnce
	}
	return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{
		Kind:       kind,
		AssocTypes: map[string]hir.Type{"Output": ret},
	}}}, true
}

// findDiscriminantKindImpl implements spec.md §4.2.2 step 1d.
func (r *Resolver) findDiscriminantKindImpl(ty hir.Type) (Candidate, bool) {
	pt, ok := ty.(*hir.PathType)
	if !ok || pt.Path.Kind != hir.PathGeneric || pt.Path.Generic == nil {
		return Candidate{}, false
	}
	switch item := pt.Path.Generic.ResolvedItem.(type) {
	case *hir.Enum:
		assoc := map[string]hir.Type{"Discriminant": &hir.Primitive{Name: item.TagRepr}}
		return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinDiscriminantKind, AssocTypes: assoc}}}, true
	case nil:
		return Candidate{}, false
	default:
		assoc := map[string]hir.Type{"Discriminant": &hir.Primitive{Name: hir.PrimUnit}}
		return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{Kind: BuiltinDiscriminantKind, AssocTypes: assoc}}}, true
	}
}

// findPointeeImpl implements spec.md §4.2.2 step 1e.
func (r *Resolver) findPointeeImpl(ty hir.Type) (Candidate, bool) {
	usize := hir.Type(&hir.Primitive{Name: hir.PrimUsize})
	unit := hir.Type(&hir.Primitive{Name: hir.PrimUnit})
	switch v := ty.(type) {
	case *hir.Slice:
		return metaCandidate(usize), true
	case *hir.Primitive:
		if v.Name == hir.PrimStr {
			return metaCandidate(usize), true
		}
		return metaCandidate(unit), true
	case *hir.TraitObject:
		// DynMetadata<T>: represented as an opaque path naming the trait
		// object's own principal, since the metadata type's only use in
		// this middle-end is round-tripping through further Pointee
		// queries, not being printed.
		return metaCandidate(&hir.TraitObject{Principal: v.Principal, Markers: v.Markers}), true
	case *hir.PathType:
		if v.Path.Kind == hir.PathGeneric && v.Path.Generic != nil {
			if s, ok := v.Path.Generic.ResolvedItem.(*hir.Struct); ok && s.Markings.DstType != nil {
				return metaCandidate(s.Markings.DstType), true
			}
		}
		return metaCandidate(unit), true
	default:
		return metaCandidate(unit), true
	}
}

func metaCandidate(meta hir.Type) Candidate {
	return Candidate{Grade: Equal, Impl: ImplRef{Builtin: &BuiltinImpl{
		Kind:       BuiltinPointee,
		AssocTypes: map[string]hir.Type{"Metadata": meta},
	}}}
}
