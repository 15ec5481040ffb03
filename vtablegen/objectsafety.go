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

package vtablegen

import "github.com/rlang/hirxc/hir"

// methodEntry is one dispatchable method destined for a vtable slot, with
// the trait it was declared on (used for TraitValueIndex.SourceTrait).
type methodEntry struct {
	fn     *hir.Function
	source *hir.GenericPath
}

// eligibleMethods implements spec.md §4.7 step 1: walk Tr's own methods
// and every supertrait's, in declaration order, deciding per method
// whether it is skipped (excluded from the vtable without affecting
// Tr's object safety), rejected (Tr is not object safe at all), or kept.
// A method name already seen from an earlier trait in the walk order
// (Tr's own methods always come first) shadows any later same-named
// method from a supertrait, matching ordinary method-resolution shadowing.
func (g *Generator) eligibleMethods(tr *hir.Trait) ([]methodEntry, bool) {
	var out []methodEntry
	seen := map[string]bool{}

	consider := func(fn *hir.Function, source *hir.GenericPath) bool {
		if seen[fn.Name] {
			return true
		}
		if !fn.IsMethod {
			seen[fn.Name] = true // a free associated function never dispatches, but still shadows
			return true
		}
		if hasSelfSizedBound(fn) {
			seen[fn.Name] = true
			return true
		}
		if fn.Generics != nil && (len(fn.Generics.TypeNames) > 0 || len(fn.Generics.ValueTys) > 0) {
			return false // generic method: reject the whole trait
		}
		if fn.ReceiverKind == hir.ReceiverValue && !g.Edition.AllowsValueReceiverObjectSafeMethods() {
			return false
		}
		if selfEscapesReceiver(fn) {
			return false
		}
		seen[fn.Name] = true
		out = append(out, methodEntry{fn: fn, source: source})
		return true
	}

	for _, fn := range tr.Methods {
		if !consider(fn, selfTraitPath(tr)) {
			return nil, false
		}
	}
	for _, parent := range tr.AllParentTraits {
		pt, ok := parent.ResolvedItem.(*hir.Trait)
		if !ok {
			continue
		}
		for _, fn := range pt.Methods {
			if !consider(fn, parent) {
				return nil, false
			}
		}
	}
	return out, true
}

// hasSelfSizedBound reports whether fn declares `where Self: Sized`,
// spec.md §4.7 step 1's explicit opt-out of vtable dispatch for one
// method without disqualifying the whole trait.
func hasSelfSizedBound(fn *hir.Function) bool {
	if fn.Generics == nil {
		return false
	}
	for _, b := range fn.Generics.Bounds {
		if !b.IsTraitBound() || !isSelfType(b.Subject) {
			continue
		}
		if n := len(b.Trait.Segments); n > 0 && b.Trait.Segments[n-1] == "Sized" {
			return true
		}
	}
	return false
}

// selfEscapesReceiver reports whether fn's signature references Self
// anywhere other than the receiver, which a method carries as Params[0] —
// spec.md §4.7 step 1's final object-safety rejection rule.
func selfEscapesReceiver(fn *hir.Function) bool {
	params := fn.Params
	if fn.IsMethod && len(params) > 0 {
		params = params[1:]
	}
	for _, p := range params {
		if typeReferencesSelf(p.Ty) {
			return true
		}
	}
	return typeReferencesSelf(fn.ReturnType)
}

func typeReferencesSelf(ty hir.Type) bool {
	switch v := ty.(type) {
	case nil:
		return false
	case *hir.Generic:
		return v.Name == "Self"
	case *hir.Borrow:
		return typeReferencesSelf(v.Inner)
	case *hir.Pointer:
		return typeReferencesSelf(v.Inner)
	case *hir.Slice:
		return typeReferencesSelf(v.Element)
	case *hir.Array:
		return typeReferencesSelf(v.Element)
	case *hir.Tuple:
		for _, e := range v.Elements {
			if typeReferencesSelf(e) {
				return true
			}
		}
		return false
	case *hir.FunctionType:
		for _, a := range v.Args {
			if typeReferencesSelf(a) {
				return true
			}
		}
		return typeReferencesSelf(v.Return)
	case *hir.PathType:
		if v.Path.UfcsSelfType != nil && typeReferencesSelf(v.Path.UfcsSelfType) {
			return true
		}
		if v.Path.Kind == hir.PathGeneric && v.Path.Generic != nil && v.Path.Generic.Params != nil {
			for _, t := range v.Path.Generic.Params.Types {
				if typeReferencesSelf(t) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// selfTraitPath builds an identity reference to tr itself, used as the
// SourceTrait for a method Tr declares on itself. It carries no generic
// arguments — only ResolvedItem is ever consulted for this purpose.
func selfTraitPath(tr *hir.Trait) *hir.GenericPath {
	return &hir.GenericPath{Segments: []string{tr.Name}, ResolvedItem: tr}
}

// unifiedAssocTypes implements the associated-type half of spec.md §4.7
// step 2.4 / the trailing collision rule: the flat, declaration-ordered
// union of Tr's own associated types and every supertrait's own, ok=false
// if two different (super)traits declare the same ATY name.
func unifiedAssocTypes(tr *hir.Trait) (names []string, ok bool) {
	seen := map[string]bool{}
	for _, a := range tr.AssocTypes {
		if seen[a.Name] {
			return nil, false
		}
		seen[a.Name] = true
		names = append(names, a.Name)
	}
	for _, parent := range tr.AllParentTraits {
		pt, ok := parent.ResolvedItem.(*hir.Trait)
		if !ok {
			continue
		}
		for _, a := range pt.AssocTypes {
			if seen[a.Name] {
				return nil, false
			}
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}
	return names, true
}
