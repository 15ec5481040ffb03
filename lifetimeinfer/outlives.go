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

package lifetimeinfer

import "github.com/rlang/hirxc/hir"

// OutlivesEdge mirrors typeinfer.OutlivesEdge: `Valid outlives Outlives`
// records `Valid: 'Outlives`. Kept as its own type (rather than importing
// typeinfer's) since lifetimeinfer's bound graph is built from explicit
// where-clause lifetime bounds too, not only the implicit
// reference-shaped ones typeinfer.BuildBounds derives — see
// BuildOutlivesClosure below.
type OutlivesEdge struct {
	Valid    hir.Lifetime
	Outlives hir.Lifetime
}

// BuildOutlivesClosure implements spec.md §4.6.1's "Bounds ... loaded from
// generics and from structural inference" half of the lifetime solver's
// state: explicit `Subject: 'lifetime` where-clause bounds plus every
// implicit `&'a T ⟹ T: 'a` a function's parameter and return types carry,
// transitively closed. The implicit half of this is the same rule
// typeinfer.BuildBounds's implicitOutlives already derives for trait-bound
// purposes; it is re-derived here rather than imported because
// typeinfer's version is unexported (a body-local helper, not part of that
// package's API) and the two consumers resolve the edges into different
// downstream graphs (trait queries vs. this solver's validate phase).
func BuildOutlivesClosure(fn *hir.Function, implBounds []hir.GenericBound) []OutlivesEdge {
	var edges []OutlivesEdge
	// hir.GenericBound only ever encodes a *type*-outlives-lifetime bound
	// (`Subject: 'lifetime`, Subject typed as Type) — there is no bare
	// lifetime-outlives-lifetime bound shape (`'a: 'b` alone, with no type
	// subject) in this HIR, so a where-clause `'a: 'b` bound is itself
	// written as `PhantomBorrow<'a>: 'b`-style, i.e. it reaches here as any
	// other Subject whose own lifetime parameters must outlive
	// OutlivesLifetime. borrowedOutlives already extracts exactly those
	// parameters from a Borrow/PathType subject.
	collectExplicit := func(bounds []hir.GenericBound) {
		for _, b := range bounds {
			if b.OutlivesLifetime == nil {
				continue
			}
			edges = append(edges, borrowedOutlives(b.Subject, *b.OutlivesLifetime)...)
		}
	}
	if fn.Generics != nil {
		collectExplicit(fn.Generics.Bounds)
	}
	collectExplicit(implBounds)

	for _, p := range fn.Params {
		edges = append(edges, implicitOutlives(p.Ty)...)
	}
	edges = append(edges, implicitOutlives(fn.ReturnType)...)

	return closeOutlivesEdges(edges)
}

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

func closeOutlivesEdges(edges []OutlivesEdge) []OutlivesEdge {
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
		h := 0
		for _, b := range []byte(lt.Name) {
			h = h*31 + int(b)
		}
		return h
	}
}
