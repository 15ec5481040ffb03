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

// ExpandAssociatedTypes implements spec.md §4.2.6 (EAT): rewrite every
// `<Self as Trait>::Item` projection reachable from ty into its concrete
// definition, recursing into the result so a chain of projections
// collapses in one call. A projection that cannot yet be resolved —
// because Self still holds an inference variable or is a generic other
// than a bound impl parameter, because resolution is already in progress
// for the same projection higher up the call stack, or because not exactly
// one candidate impl answers Equal (Fuzzy candidates are not counted) — is
// left in place as the projection
// itself; callers that need a concrete answer see this as "still
// opaque" and retry once more of the body has been inferred.
func (r *Resolver) ExpandAssociatedTypes(ty hir.Type) hir.Type {
	return r.expandAssociatedTypes(ty)
}

func (r *Resolver) expandAssociatedTypes(ty hir.Type) hir.Type {
	switch v := ty.(type) {
	case *hir.PathType:
		if v.Path.Kind == hir.PathUfcsKnown {
			return r.expandProjection(v)
		}
		return ty
	case *hir.Borrow:
		inner := r.expandAssociatedTypes(v.Inner)
		if inner == v.Inner {
			return ty
		}
		n := *v
		n.Inner = inner
		return &n
	case *hir.Pointer:
		inner := r.expandAssociatedTypes(v.Inner)
		if inner == v.Inner {
			return ty
		}
		n := *v
		n.Inner = inner
		return &n
	case *hir.Slice:
		elem := r.expandAssociatedTypes(v.Element)
		if elem == v.Element {
			return ty
		}
		return &hir.Slice{Element: elem}
	case *hir.Array:
		elem := r.expandAssociatedTypes(v.Element)
		if elem == v.Element {
			return ty
		}
		n := *v
		n.Element = elem
		return &n
	case *hir.Tuple:
		changed := false
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = r.expandAssociatedTypes(e)
			if elems[i] != e {
				changed = true
			}
		}
		if !changed {
			return ty
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		changed := false
		args := make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = r.expandAssociatedTypes(a)
			if args[i] != a {
				changed = true
			}
		}
		ret := r.expandAssociatedTypes(v.Return)
		if ret != v.Return {
			changed = true
		}
		if !changed {
			return ty
		}
		n := *v
		n.Args, n.Return = args, ret
		return &n
	default:
		return ty
	}
}

// expandProjection resolves one `<SelfType as Trait>::Item` node.
func (r *Resolver) expandProjection(proj *hir.PathType) hir.Type {
	self := r.expandAssociatedTypes(proj.Path.UfcsSelfType)

	if self.Ivars() {
		return rebuildProjection(proj, self)
	}
	if g, ok := self.(*hir.Generic); ok && (g.Group != hir.GroupImpl || g.IsPlaceholderUnknown) {
		// An item-level or still-unbound placeholder Self has no concrete
		// definition to project through; leave the projection opaque until
		// monomorphisation supplies a real Self.
		return rebuildProjection(proj, self)
	}

	key := typeKey(self) + "::" + proj.Path.UfcsTrait.String() + "::" + proj.Path.UfcsItem
	guard, entered := r.eatRecursion.Enter(key)
	if !entered {
		return rebuildProjection(proj, self)
	}
	defer guard.Exit()

	if builtin, ok := r.expandBuiltinProjection(proj.Path.UfcsTrait, proj.Path.UfcsItem, self); ok {
		return r.expandAssociatedTypes(builtin)
	}

	switch sv := self.(type) {
	case *hir.TraitObject:
		if assoc, ok := sv.AssociatedTys[proj.Path.UfcsItem]; ok {
			return r.expandAssociatedTypes(assoc)
		}
		return rebuildProjection(proj, self)
	case *hir.ErasedType:
		// An erased type's Bounds confirm trait membership but carry no
		// associated-type definitions of their own; nothing further to
		// project through until monomorphisation reveals the concrete
		// hidden type.
		_ = sv
		return rebuildProjection(proj, self)
	}

	if entries, ok := r.boundCache.Load(currentBoundScope); ok {
		for _, e := range entries {
			if traitName(e.Trait) != traitName(proj.Path.UfcsTrait) || !hir.TypesEqual(e.Subject, self) {
				continue
			}
			if assoc, ok := e.Assoc[proj.Path.UfcsItem]; ok {
				return r.expandAssociatedTypes(assoc)
			}
		}
	}

	var resolved hir.Type
	matches := 0
	r.FindTraitImpls(proj.Path.UfcsTrait, self, true, func(cand Candidate) bool {
		if cand.Grade != Equal {
			return false
		}
		matches++
		if cand.Impl.Trait != nil {
			if def, ok := cand.Impl.Trait.AssocTypes[proj.Path.UfcsItem]; ok {
				replace := func(g *hir.Generic) (hir.Type, bool) {
					if g.Group == hir.GroupImpl && int(g.Index) < len(cand.Impl.Subst) {
						return cand.Impl.Subst[g.Index], true
					}
					return nil, false
				}
				resolved = substType(def, replace)
			}
		} else if cand.Impl.Builtin != nil {
			if def, ok := cand.Impl.Builtin.AssocTypes[proj.Path.UfcsItem]; ok {
				resolved = def
			}
		}
		return matches > 1
	})
	if matches == 1 && resolved != nil {
		return r.expandAssociatedTypes(resolved)
	}
	// No match, an ambiguous Equal tie, or only Fuzzy candidates (a
	// specializable impl whose finality isn't decided until
	// monomorphisation): leave the projection opaque.
	return rebuildProjection(proj, self)
}

// expandBuiltinProjection handles the associated types of the built-in
// callable/generator families, which never go through an ordinary
// TraitImpl: `Output` on Fn/FnMut/FnOnce, `Yield`/`Return` on Generator.
func (r *Resolver) expandBuiltinProjection(trait *hir.GenericPath, item string, self hir.Type) (hir.Type, bool) {
	name := traitName(trait)
	switch v := self.(type) {
	case *hir.FunctionType:
		if item == "Output" && (name == "Fn" || name == "FnMut" || name == "FnOnce") {
			return v.Return, true
		}
	case *hir.ClosureType:
		if item == "Output" && (name == "Fn" || name == "FnMut" || name == "FnOnce") {
			return v.Node.RetType, true
		}
	case *hir.GeneratorType:
		switch item {
		case "Yield":
			if name == "Generator" {
				return v.Node.YieldType, true
			}
		case "Return":
			if name == "Generator" {
				return v.Node.ReturnType, true
			}
		}
	}
	return nil, false
}

// rebuildProjection returns proj with only its Self type updated, used for
// every "still opaque" exit path so callers always see the most-expanded
// Self even when the outer projection itself couldn't be resolved.
func rebuildProjection(proj *hir.PathType, self hir.Type) hir.Type {
	if self == proj.Path.UfcsSelfType {
		return proj
	}
	path := *proj.Path
	path.UfcsSelfType = self
	return &hir.PathType{Path: &path}
}
