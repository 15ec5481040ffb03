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

package typeinfer

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/traitresolve"
)

// OutlivesEdge is one entry of the bound closure (spec.md §4.3.3): `Valid
// 'a` (empty Outlives) is a free-standing region, and `Valid outlives
// Outlives` records `Valid: 'Outlives`.
type OutlivesEdge struct {
	Valid    hir.Lifetime
	Outlives hir.Lifetime
}

// BuildBounds implements spec.md §4.3.3: precompute this body's
// `m_trait_bounds` table from the owning function's own generics plus
// (for a method) the owning impl's generics, derive the implicit
// outlives bounds a reference-shaped signature carries, and install the
// result into Resolver so every trait query for the rest of this body's
// inference sees it. implBounds/implGenerics are nil for a free function.
func (c *Context) BuildBounds(fn *hir.Function, implGenerics *hir.GenericParams, implBounds []hir.GenericBound) {
	var entries []traitresolve.BoundEntry

	collect := func(bounds []hir.GenericBound) {
		for _, b := range bounds {
			if !b.IsTraitBound() {
				continue
			}
			entries = append(entries, traitresolve.BoundEntry{
				Subject: b.Subject,
				Trait:   b.Trait,
				Assoc:   assocBindings(b.Trait),
			})
		}
	}
	if fn.Generics != nil {
		collect(fn.Generics.Bounds)
	}
	collect(implBounds)

	var outlives []OutlivesEdge
	for _, p := range fn.Params {
		outlives = append(outlives, implicitOutlives(p.Ty)...)
	}
	outlives = append(outlives, implicitOutlives(fn.ReturnType)...)

	c.Bounds = entries
	c.OutlivesClosure = closeOutlives(outlives)
	c.Resolver.SetBounds(entries)
}

// assocBindings converts a trait bound's associated-type bindings (the
// `Item = U` in `T: Iterator<Item = U>`) into the name-keyed map
// traitresolve.BoundEntry.Assoc carries, the same shape eat.go's
// expand_associated_types_inplace looks a projection's item name up in.
func assocBindings(trait *hir.GenericPath) map[string]hir.Type {
	if trait == nil || trait.Params == nil || len(trait.Params.Bindings) == 0 {
		return nil
	}
	m := make(map[string]hir.Type, len(trait.Params.Bindings))
	for _, b := range trait.Params.Bindings {
		m[b.Name] = b.Type
	}
	return m
}

// implicitOutlives implements the `&'a T` ⟹ `T: 'a` rule (and descends
// structurally so a struct field or tuple element nested inside a
// reference contributes the same implicit bound); a struct's own
// lifetime parameters otherwise inherit their bound from the struct's
// declaration, which name resolution has already threaded onto the
// GenericPath's lifetime arguments by the time this pass runs, so no
// separate lookup is needed here.
func implicitOutlives(ty hir.Type) []OutlivesEdge {
	switch v := ty.(type) {
	case *hir.Borrow:
		var out []OutlivesEdge
		if v.Lifetime.IsConcrete() {
			out = append(out, borrowedOutlives(v.Inner, v.Lifetime)...)
		}
		return append(out, implicitOutlives(v.Inner)...)
	case *hir.Slice:
		return implicitOutlives(v.Element)
	case *hir.Array:
		return implicitOutlives(v.Element)
	case *hir.Tuple:
		var out []OutlivesEdge
		for _, e := range v.Elements {
			out = append(out, implicitOutlives(e)...)
		}
		return out
	default:
		return nil
	}
}

// borrowedOutlives yields `T: 'a` for every generic-lifetime-parameter
// position directly inside a type borrowed for 'a, and recurses into
// nested borrows so `&'a &'b T` also yields `'b: 'a`.
func borrowedOutlives(inner hir.Type, lt hir.Lifetime) []OutlivesEdge {
	switch v := inner.(type) {
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return nil
		}
		var out []OutlivesEdge
		for _, pl := range v.Path.Generic.Params.Lifetimes {
			if pl.IsConcrete() {
				out = append(out, OutlivesEdge{Valid: pl, Outlives: lt})
			}
		}
		return out
	case *hir.Borrow:
		if v.Lifetime.IsConcrete() {
			return []OutlivesEdge{{Valid: v.Lifetime, Outlives: lt}}
		}
		return nil
	default:
		return nil
	}
}

// closeOutlives extends edges by transitive closure until a fixed point:
// `a: b` and `b: c` together imply `a: c`.
func closeOutlives(edges []OutlivesEdge) []OutlivesEdge {
	seen := map[[2]int]bool{}
	key := func(a, b hir.Lifetime) [2]int { return [2]int{lifetimeKey(a), lifetimeKey(b)} }
	for _, e := range edges {
		seen[key(e.Valid, e.Outlives)] = true
	}
	for {
		added := false
		for _, e1 := range edges {
			for _, e2 := range edges {
				if lifetimeKey(e1.Outlives) != lifetimeKey(e2.Valid) {
					continue
				}
				k := key(e1.Valid, e2.Outlives)
				if seen[k] {
					continue
				}
				seen[k] = true
				edges = append(edges, OutlivesEdge{Valid: e1.Valid, Outlives: e2.Outlives})
				added = true
			}
		}
		if !added {
			break
		}
	}
	return edges
}

func lifetimeKey(lt hir.Lifetime) int {
	switch lt.Kind {
	case hir.LifetimeStatic:
		return -1
	case hir.LifetimeLocal, hir.LifetimeIvar:
		return lt.ID
	default:
		// Named lifetimes are rare enough in a bound closure (they only
		// ever originate from explicit `where 'a: 'b` clauses, handled
		// separately) that hashing the name's bytes into the same int
		// space is good enough to disambiguate within one function body.
		h := 0
		for _, b := range []byte(lt.Name) {
			h = h*31 + int(b)
		}
		return h
	}
}
